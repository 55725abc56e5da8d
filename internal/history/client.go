package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultLimit is the page size used when the caller passes a non-positive limit.
const DefaultLimit = 50

// Client mirrors the remote history resource into a local cache. Every
// failure is also kept in an error slot so a UI can render it until cleared.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu     sync.Mutex
	items  []Item
	search string
	err    error
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// List fetches up to limit items and replaces the cache with them. On failure
// the cache is left as it was.
func (c *Client) List(ctx context.Context, limit int, search string) ([]Item, error) {
	c.ClearErr()
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if search != "" {
		params.Set("search", search)
	}

	var body ListResponse
	status, err := c.do(ctx, http.MethodGet, "/api/history?"+params.Encode(), &body)
	if err != nil {
		return nil, c.fail("list", err)
	}
	if !ok(status) {
		return nil, c.fail("list", &FetchError{Op: "list", StatusCode: status})
	}

	c.mu.Lock()
	c.items = append([]Item(nil), body.Histories...)
	c.mu.Unlock()

	c.logger.Debug("history listed", "count", len(body.Histories), "search", search)
	return body.Histories, nil
}

// Get fetches a single item. The cache is not touched.
func (c *Client) Get(ctx context.Context, id string) (*Item, error) {
	var item Item
	status, err := c.do(ctx, http.MethodGet, "/api/history/"+url.PathEscape(id), &item)
	if err != nil {
		return nil, c.fail("get", err)
	}
	if status == http.StatusNotFound {
		return nil, c.fail("get", &NotFoundError{ID: id})
	}
	if !ok(status) {
		return nil, c.fail("get", &FetchError{Op: "get", StatusCode: status})
	}
	return &item, nil
}

// Delete removes one item remotely, then from the cache if the store
// confirmed it. It returns the store's success flag.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	var body DeleteResponse
	status, err := c.do(ctx, http.MethodDelete, "/api/history/"+url.PathEscape(id), &body)
	if err != nil {
		return false, c.fail("delete", err)
	}
	if !ok(status) {
		return false, c.fail("delete", &FetchError{Op: "delete", StatusCode: status})
	}

	if body.Success {
		c.mu.Lock()
		kept := c.items[:0:0]
		for _, it := range c.items {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		c.items = kept
		c.mu.Unlock()
	}

	c.logger.Info("history item deleted", "id", id, "success", body.Success)
	return body.Success, nil
}

// DeleteAll clears the remote store, then the cache if the store confirmed it.
func (c *Client) DeleteAll(ctx context.Context) (bool, error) {
	var body DeleteResponse
	status, err := c.do(ctx, http.MethodDelete, "/api/history", &body)
	if err != nil {
		return false, c.fail("delete all", err)
	}
	if !ok(status) {
		return false, c.fail("delete all", &FetchError{Op: "delete all", StatusCode: status})
	}

	if body.Success {
		c.mu.Lock()
		c.items = nil
		c.mu.Unlock()
	}

	c.logger.Info("history cleared", "success", body.Success)
	return body.Success, nil
}

// Health reports whether the history resource answers with a 2xx. Any
// failure, including a transport error, is reported as false.
func (c *Client) Health(ctx context.Context) bool {
	status, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		c.logger.Debug("history health check failed", "error", err)
		return false
	}
	return ok(status)
}

// Items returns a copy of the cache in server order.
func (c *Client) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Err returns the last recorded error, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearErr empties the error slot.
func (c *Client) ClearErr() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}

func (c *Client) fail(op string, err error) error {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.logger.Warn("history request failed", "op", op, "error", err)
	return err
}

// do performs the request and decodes a 2xx JSON body into out when out is
// non-nil. Network and decode failures come back as *TransportError.
func (c *Client) do(ctx context.Context, method, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &TransportError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
