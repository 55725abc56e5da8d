package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/quarry/internal/effort"
	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/history"
)

// Saver persists a history item and returns its assigned ID.
type Saver interface {
	Save(ctx context.Context, item history.Item) (string, error)
}

// Recorder turns completed-run events into history rows.
type Recorder struct {
	store   Saver
	logger  *slog.Logger
	timeout time.Duration
}

func New(s Saver, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger, timeout: 10 * time.Second}
}

// HandleRunCompleted is the NATS handler for research.run.completed.
func (r *Recorder) HandleRunCompleted(subject string, data []byte) {
	var evt hermes.RunCompleted
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Error("failed to parse run completed event", "subject", subject, "error", err)
		return
	}
	if strings.TrimSpace(evt.Query) == "" {
		r.logger.Warn("run completed without a query, not recorded", "run_id", evt.RunID)
		return
	}
	if _, _, err := effort.Map(evt.Effort); err != nil {
		// Kept as-is; Replay reports the bad effort.
		r.logger.Warn("run completed with unknown effort", "run_id", evt.RunID, "effort", evt.Effort)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	id, err := r.store.Save(ctx, history.Item{
		Query:         evt.Query,
		Effort:        evt.Effort,
		Model:         evt.Model,
		Result:        evt.Result,
		SearchQueries: evt.SearchQueries,
		SourcesCount:  evt.SourcesCount,
		DurationMs:    evt.DurationMs,
	})
	if err != nil {
		r.logger.Error("failed to record run", "run_id", evt.RunID, "error", err)
		return
	}

	r.logger.Info("run recorded",
		"run_id", evt.RunID,
		"history_id", id,
		"sources", evt.SourcesCount,
	)
}
