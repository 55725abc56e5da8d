package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/history"
)

type fakeSaver struct {
	saved []history.Item
	err   error
}

func (f *fakeSaver) Save(_ context.Context, item history.Item) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, item)
	return "hist-1", nil
}

func newRecorder(s Saver) *Recorder {
	return New(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleRunCompleted(t *testing.T) {
	saver := &fakeSaver{}
	r := newRecorder(saver)

	raw := `{
		"run_id": "run-1",
		"query": "compare pgx and database/sql",
		"effort": "high",
		"model": "gemini-2.5-pro",
		"result": "pgx exposes postgres-specific types.",
		"search_queries": ["pgx vs database/sql", "pgxpool"],
		"sources_count": 7,
		"duration_ms": 45000
	}`
	r.HandleRunCompleted(hermes.SubjectRunCompleted, []byte(raw))

	if len(saver.saved) != 1 {
		t.Fatalf("expected 1 saved item, got %d", len(saver.saved))
	}
	item := saver.saved[0]
	if item.Query != "compare pgx and database/sql" || item.Effort != "high" || item.Model != "gemini-2.5-pro" {
		t.Errorf("unexpected item: %+v", item)
	}
	if len(item.SearchQueries) != 2 || item.SourcesCount != 7 {
		t.Errorf("unexpected research details: %+v", item)
	}
	if item.DurationMs == nil || *item.DurationMs != 45000 {
		t.Errorf("expected duration 45000, got %v", item.DurationMs)
	}
	if item.ID != "" || item.Timestamp != "" {
		t.Errorf("id and timestamp are assigned by the store, got %q %q", item.ID, item.Timestamp)
	}
}

func TestHandleRunCompleted_Skips(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing query", `{"run_id":"r","effort":"low","result":"x"}`},
		{"blank query", `{"run_id":"r","query":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{}
			newRecorder(saver).HandleRunCompleted(hermes.SubjectRunCompleted, []byte(tt.raw))
			if len(saver.saved) != 0 {
				t.Errorf("expected nothing saved, got %d", len(saver.saved))
			}
		})
	}
}

func TestHandleRunCompleted_UnknownEffortStillRecorded(t *testing.T) {
	saver := &fakeSaver{}
	newRecorder(saver).HandleRunCompleted(hermes.SubjectRunCompleted, []byte(`{"query":"q","effort":"extreme"}`))
	if len(saver.saved) != 1 {
		t.Errorf("expected item to be recorded, got %d", len(saver.saved))
	}
}

func TestHandleRunCompleted_SaveError(t *testing.T) {
	saver := &fakeSaver{err: errors.New("db down")}
	// Must not panic; the failure is only logged.
	newRecorder(saver).HandleRunCompleted(hermes.SubjectRunCompleted, []byte(`{"query":"q","effort":"low"}`))
	if len(saver.saved) != 0 {
		t.Errorf("expected nothing saved, got %d", len(saver.saved))
	}
}
