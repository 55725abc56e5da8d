package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/quarry/internal/history"
)

// DefaultCap is the number of history rows kept when no cap is configured.
const DefaultCap = 100

// ErrNotFound is returned by Get for an unknown history ID.
var ErrNotFound = errors.New("history item not found")

const schema = `
CREATE TABLE IF NOT EXISTS research_history (
	id             uuid PRIMARY KEY,
	query          text NOT NULL,
	effort         text NOT NULL DEFAULT '',
	model          text NOT NULL DEFAULT '',
	result         text NOT NULL DEFAULT '',
	search_queries text[] NOT NULL DEFAULT '{}',
	sources_count  integer NOT NULL DEFAULT 0,
	duration_ms    bigint,
	created_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS research_history_created_at_idx ON research_history (created_at DESC);`

type Store struct {
	pool    *pgxpool.Pool
	maxRows int
}

func New(ctx context.Context, databaseURL string, maxRows int) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if maxRows <= 0 {
		maxRows = DefaultCap
	}
	return &Store{pool: pool, maxRows: maxRows}, nil
}

// Migrate creates the history table if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// Save inserts a history item as the newest row and trims the table to the
// configured cap. The item's ID and timestamp are assigned here.
func (s *Store) Save(ctx context.Context, item history.Item) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	queries := item.SearchQueries
	if queries == nil {
		queries = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO research_history (id, query, effort, model, result, search_queries, sources_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, clock_timestamp())`,
		id, item.Query, item.Effort, item.Model, item.Result, queries, item.SourcesCount, item.DurationMs,
	)
	if err != nil {
		return "", fmt.Errorf("insert history: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM research_history WHERE id NOT IN (
			SELECT id FROM research_history ORDER BY created_at DESC LIMIT $1
		)`, s.maxRows)
	if err != nil {
		return "", fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id.String(), nil
}

const selectColumns = `SELECT id, query, effort, model, result, search_queries, sources_count, duration_ms, created_at FROM research_history`

// List returns the newest limit items. A non-empty search instead returns
// every item whose query or result contains it, case-insensitively.
func (s *Store) List(ctx context.Context, limit int, search string) ([]history.Item, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if search != "" {
		rows, err = s.pool.Query(ctx, selectColumns+`
			WHERE strpos(lower(query), lower($1)) > 0 OR strpos(lower(result), lower($1)) > 0
			ORDER BY created_at DESC`, search)
	} else {
		rows, err = s.pool.Query(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := []history.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*history.Item, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	item, err := scanItem(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return &item, nil
}

// Delete removes one item and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM research_history WHERE id = $1`, uid)
	if err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM research_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (history.Item, error) {
	var (
		item    history.Item
		id      uuid.UUID
		created time.Time
	)
	err := row.Scan(&id, &item.Query, &item.Effort, &item.Model, &item.Result,
		&item.SearchQueries, &item.SourcesCount, &item.DurationMs, &created)
	if err != nil {
		return history.Item{}, err
	}
	item.ID = id.String()
	item.Timestamp = created.UTC().Format(time.RFC3339Nano)
	return item, nil
}
