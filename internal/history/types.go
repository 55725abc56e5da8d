package history

import "fmt"

// Item is one persisted research session.
type Item struct {
	ID            string   `json:"id"`
	Query         string   `json:"query"`
	Timestamp     string   `json:"timestamp"`
	Effort        string   `json:"effort"`
	Model         string   `json:"model"`
	Result        string   `json:"result"`
	SearchQueries []string `json:"search_queries"`
	SourcesCount  int      `json:"sources_count"`
	DurationMs    *int64   `json:"duration_ms,omitempty"`
}

// ListResponse is the body of GET /api/history.
type ListResponse struct {
	Histories []Item `json:"histories"`
	Total     int    `json:"total"`
}

// DeleteResponse is the body of both DELETE endpoints.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// FetchError reports a non-success HTTP status from the history resource.
type FetchError struct {
	Op         string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("history %s: unexpected status %d", e.Op, e.StatusCode)
}

// NotFoundError reports a history item the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("history item %s not found", e.ID)
}

// TransportError reports a failure to reach the history resource at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
