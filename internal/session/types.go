package session

import (
	"context"
	"errors"
	"fmt"
)

// Phase is the lifecycle state of the session's current run.
type Phase int

const (
	// Idle: no run in flight and an empty timeline.
	Idle Phase = iota
	// Streaming: a run is active and the timeline is growing.
	Streaming
	// Finalized: a terminal stage was observed; the run may still be draining.
	Finalized
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Message types as the pipeline names them.
const (
	MessageHuman = "human"
	MessageAI    = "ai"
)

// Message is one turn of the conversation sent to and received from the pipeline.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	ID      string `json:"id"`
}

// RunRequest is dispatched to the research pipeline on every submit.
type RunRequest struct {
	RunID                   string    `json:"run_id"`
	Messages                []Message `json:"messages"`
	InitialSearchQueryCount int       `json:"initial_search_query_count"`
	MaxResearchLoops        int       `json:"max_research_loops"`
	ReasoningModel          string    `json:"reasoning_model"`
	Effort                  string    `json:"effort,omitempty"`
}

// Dispatcher starts and stops runs on the remote pipeline.
type Dispatcher interface {
	Submit(ctx context.Context, req RunRequest) error
	Stop(ctx context.Context, runID string) error
}

// ErrSessionFailed is returned by Submit while a transport failure is pending.
// Reset clears it.
var ErrSessionFailed = errors.New("session failed: reset required")

// ValidationError rejects user input before anything is dispatched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failure reaching the pipeline or reported by its stream.
type TransportError struct {
	RunID string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("run %s: %v", e.RunID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
