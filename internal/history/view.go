package history

import (
	"strings"
	"time"
)

// recentWindow is the trailing window counted by Stats.LastWeek.
const recentWindow = 7 * 24 * time.Hour

// Stats are derived from the cache on every call.
type Stats struct {
	Total    int `json:"total"`
	LastWeek int `json:"last_week"`
}

// SetSearch sets the term used by Filtered.
func (c *Client) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

// Search returns the current search term.
func (c *Client) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// Filtered projects the cache through the current search term.
func (c *Client) Filtered() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.items, c.search)
}

// Stats computes totals over the cache relative to now.
func (c *Client) Stats(now time.Time) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeStats(c.items, now)
}

// Filter returns items whose query or result contains term, ignoring case.
// A blank term matches everything; otherwise the term is matched as given,
// surrounding spaces included.
func Filter(items []Item, term string) []Item {
	if strings.TrimSpace(term) == "" {
		return append([]Item(nil), items...)
	}

	needle := strings.ToLower(term)
	var out []Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Query), needle) ||
			strings.Contains(strings.ToLower(it.Result), needle) {
			out = append(out, it)
		}
	}
	return out
}

// ComputeStats counts all items and those stamped less than seven days
// before now. Timestamps that do not parse are only counted in Total.
func ComputeStats(items []Item, now time.Time) Stats {
	s := Stats{Total: len(items)}
	for _, it := range items {
		ts, ok := ParseTimestamp(it.Timestamp)
		if !ok {
			continue
		}
		if now.Sub(ts) < recentWindow {
			s.LastWeek++
		}
	}
	return s
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO-8601 form the
// history store writes; zone-less values are read as local time.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
