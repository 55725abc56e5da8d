package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/quarry/internal/activity"
	"github.com/MikeSquared-Agency/quarry/internal/session"
)

// FrameKind distinguishes the frames carried on SubjectRunStream.
type FrameKind string

const (
	FrameUpdate  FrameKind = "update"
	FrameMessage FrameKind = "message"
	FrameEnd     FrameKind = "end"
	FrameError   FrameKind = "error"
)

// Frame is one message of a run's progress stream.
type Frame struct {
	RunID   string           `json:"run_id"`
	Kind    FrameKind        `json:"kind"`
	Event   activity.Event   `json:"event,omitempty"`
	Message *session.Message `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// StopRequest asks the pipeline to abandon a run.
type StopRequest struct {
	RunID string `json:"run_id"`
}

// RunCompleted is published by the pipeline once a run has produced its
// final answer, so the history service can persist it.
type RunCompleted struct {
	RunID         string   `json:"run_id"`
	Query         string   `json:"query"`
	Effort        string   `json:"effort"`
	Model         string   `json:"model"`
	Result        string   `json:"result"`
	SearchQueries []string `json:"search_queries"`
	SourcesCount  int      `json:"sources_count"`
	DurationMs    *int64   `json:"duration_ms,omitempty"`
}

// StreamError is a failure reported by the pipeline inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "pipeline error: " + e.Message
}

type publisher interface {
	Publish(subject string, data any) error
}

// Dispatcher sends run requests to the pipeline over NATS.
type Dispatcher struct {
	pub    publisher
	logger *slog.Logger
}

func NewDispatcher(pub publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, logger: logger}
}

func (d *Dispatcher) Submit(ctx context.Context, req session.RunRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.pub.Publish(SubjectRunSubmit, req); err != nil {
		return fmt.Errorf("submit run: %w", err)
	}
	d.logger.Info("run submitted",
		"run_id", req.RunID,
		"messages", len(req.Messages),
		"queries", req.InitialSearchQueryCount,
		"loops", req.MaxResearchLoops,
		"model", req.ReasoningModel,
	)
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.pub.Publish(SubjectRunStop, StopRequest{RunID: runID}); err != nil {
		return fmt.Errorf("stop run: %w", err)
	}
	d.logger.Info("run stop requested", "run_id", runID)
	return nil
}

// Sink receives decoded stream frames. *session.Session implements it.
type Sink interface {
	HandleEvent(runID string, ev activity.Event)
	ObserveMessage(runID string, msg session.Message)
	Drained(runID string)
	Fail(runID string, err error)
}

// Bridge feeds frames from SubjectRunStream into a Sink.
type Bridge struct {
	sink   Sink
	logger *slog.Logger
}

func NewBridge(sink Sink, logger *slog.Logger) *Bridge {
	return &Bridge{sink: sink, logger: logger}
}

// HandleFrame is the NATS handler for SubjectRunStream.
func (b *Bridge) HandleFrame(subject string, data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		b.logger.Error("failed to parse stream frame", "subject", subject, "error", err)
		return
	}
	if f.RunID == "" {
		b.logger.Warn("dropping stream frame without run id", "subject", subject, "kind", f.Kind)
		return
	}

	switch f.Kind {
	case FrameUpdate:
		if len(f.Event) == 0 {
			b.logger.Debug("empty update frame", "run_id", f.RunID)
			return
		}
		b.sink.HandleEvent(f.RunID, f.Event)
	case FrameMessage:
		if f.Message == nil {
			b.logger.Warn("message frame without message", "run_id", f.RunID)
			return
		}
		b.sink.ObserveMessage(f.RunID, *f.Message)
	case FrameEnd:
		b.sink.Drained(f.RunID)
	case FrameError:
		b.sink.Fail(f.RunID, &StreamError{Message: f.Error})
	default:
		b.logger.Warn("unknown frame kind", "run_id", f.RunID, "kind", f.Kind)
	}
}
