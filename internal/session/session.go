package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/quarry/internal/activity"
	"github.com/MikeSquared-Agency/quarry/internal/effort"
	"github.com/MikeSquared-Agency/quarry/internal/history"
)

// Session drives one conversational research session. Inbound stream calls
// (HandleEvent, ObserveMessage, Drained, Fail) carry the run ID they belong
// to; calls for any run other than the current one, or with no run ID, are
// dropped.
type Session struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	newID      func() string

	mu       sync.Mutex
	phase    Phase
	runID    string
	messages []Message
	timeline activity.Timeline
	archive  map[string][]activity.Entry
	err      error
	idle     chan struct{} // closed when the current run settles
	onEntry  func(activity.Entry)
	onReplay func()
}

func New(d Dispatcher, logger *slog.Logger) *Session {
	return &Session{
		dispatcher: d,
		logger:     logger,
		newID:      uuid.NewString,
		archive:    make(map[string][]activity.Entry),
	}
}

// OnEntry registers a callback invoked for every entry appended to the timeline.
func (s *Session) OnEntry(fn func(activity.Entry)) {
	s.mu.Lock()
	s.onEntry = fn
	s.mu.Unlock()
}

// OnReplay registers a callback invoked when a history item is replayed,
// typically to close the history panel.
func (s *Session) OnReplay(fn func()) {
	s.mu.Lock()
	s.onReplay = fn
	s.mu.Unlock()
}

// Submit starts a new run continuing the current conversation.
func (s *Session) Submit(ctx context.Context, text, level, model string) error {
	params, err := validate(text, level, model)
	if err != nil {
		return err
	}
	return s.submit(ctx, text, level, params, false)
}

// Replay starts a clean session from a history item's query, effort and model.
// A rejected item leaves the session, including any pending error, untouched.
func (s *Session) Replay(ctx context.Context, item history.Item) error {
	params, err := validate(item.Query, item.Effort, item.Model)
	if err != nil {
		return err
	}

	s.mu.Lock()
	hook := s.onReplay
	s.err = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return s.submit(ctx, item.Query, item.Effort, params, true)
}

func validate(text, level, model string) (effort.RunParameters, error) {
	if strings.TrimSpace(text) == "" {
		return effort.RunParameters{}, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	return effort.Parameters(level, model)
}

func (s *Session) submit(ctx context.Context, text, level string, params effort.RunParameters, replace bool) error {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return ErrSessionFailed
	}
	if s.phase != Idle {
		s.logger.Warn("superseding run in flight", "run_id", s.runID, "phase", s.phase.String())
	}

	s.timeline.Reset()
	s.settle()
	s.runID = s.newID()
	s.idle = make(chan struct{})
	if replace {
		s.messages = nil
	}
	s.messages = append(s.messages, Message{Type: MessageHuman, Content: text, ID: s.newID()})
	s.phase = Streaming

	req := RunRequest{
		RunID:                   s.runID,
		Messages:                append([]Message(nil), s.messages...),
		InitialSearchQueryCount: params.InitialSearchQueryCount,
		MaxResearchLoops:        params.MaxResearchLoops,
		ReasoningModel:          params.ReasoningModel,
		Effort:                  level,
	}
	s.mu.Unlock()

	s.logger.Info("submitting run",
		"run_id", req.RunID,
		"effort", level,
		"model", params.ReasoningModel,
		"messages", len(req.Messages),
		"replay", replace,
	)

	if err := s.dispatcher.Submit(ctx, req); err != nil {
		s.Fail(req.RunID, err)
		return &TransportError{RunID: req.RunID, Err: err}
	}
	return nil
}

// HandleEvent classifies one progress event and appends the resulting entry.
// Unrecognised events are ignored.
func (s *Session) HandleEvent(runID string, ev activity.Event) {
	entry, ok, terminal := activity.Classify(ev)

	s.mu.Lock()
	if !s.accepts(runID) {
		s.mu.Unlock()
		s.logger.Debug("dropping event for inactive run", "run_id", runID)
		return
	}
	if ok {
		s.timeline.Append(entry)
	}
	if terminal {
		s.phase = Finalized
	}
	hook := s.onEntry
	s.mu.Unlock()

	if ok && hook != nil {
		hook(entry)
	}
}

// ObserveMessage records a message emitted by the pipeline, replacing any
// earlier message with the same ID.
func (s *Session) ObserveMessage(runID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(runID) {
		return
	}
	if msg.ID != "" {
		for i := range s.messages {
			if s.messages[i].ID == msg.ID {
				s.messages[i] = msg
				return
			}
		}
	}
	s.messages = append(s.messages, msg)
}

// Drained handles the pipeline's end-of-stream notification. A finalized run
// whose last message is an agent message is archived under that message's ID.
func (s *Session) Drained(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(runID) {
		return
	}

	if s.phase == Finalized && len(s.messages) > 0 {
		last := s.messages[len(s.messages)-1]
		if last.Type == MessageAI && last.ID != "" {
			if _, exists := s.archive[last.ID]; exists {
				s.logger.Warn("timeline already archived for message", "message_id", last.ID)
			} else {
				s.archive[last.ID] = s.timeline.Entries()
				s.logger.Info("run archived",
					"run_id", s.runID,
					"message_id", last.ID,
					"entries", s.timeline.Len(),
				)
			}
		}
	}

	s.timeline.Reset()
	s.phase = Idle
	s.runID = ""
	s.settle()
}

// Cancel aborts the current run without archiving it.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	runID := s.runID
	s.timeline.Reset()
	s.phase = Idle
	s.runID = ""
	s.settle()
	s.mu.Unlock()

	if runID == "" {
		return nil
	}
	s.logger.Info("cancelling run", "run_id", runID)
	if err := s.dispatcher.Stop(ctx, runID); err != nil {
		s.logger.Warn("failed to stop run", "run_id", runID, "error", err)
		return &TransportError{RunID: runID, Err: err}
	}
	return nil
}

// Fail records a transport failure for the run. The phase is left as is and
// further submits are refused until Reset.
func (s *Session) Fail(runID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runID == "" || runID != s.runID {
		s.logger.Debug("dropping failure for inactive run", "run_id", runID, "error", err)
		return
	}
	s.err = &TransportError{RunID: s.runID, Err: err}
	s.logger.Error("run failed", "run_id", s.runID, "error", err)
	s.settle()
}

// Reset restarts the session from scratch. The archive is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.timeline.Reset()
	s.err = nil
	s.phase = Idle
	s.runID = ""
	s.settle()
}

// Wait blocks until the current run drains, is cancelled or fails, and
// returns the session error if any.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.idle
	s.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err()
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// RunID returns the identifier of the run in flight, or "" when idle.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Timeline returns a copy of the live timeline.
func (s *Session) Timeline() []activity.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Entries()
}

// Archive returns a copy of the timeline archived for a message ID.
func (s *Session) Archive(messageID string) ([]activity.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.archive[messageID]
	if !ok {
		return nil, false
	}
	return append([]activity.Entry(nil), entries...), true
}

// ArchiveLen returns the number of archived timelines.
func (s *Session) ArchiveLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.archive)
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Err returns the pending transport error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// accepts reports whether a stream call for runID applies. Caller holds mu.
func (s *Session) accepts(runID string) bool {
	if s.phase == Idle || s.runID == "" {
		return false
	}
	return runID != "" && runID == s.runID
}

// settle wakes Wait callers. Caller holds mu.
func (s *Session) settle() {
	if s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}
