package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/quarry/internal/history"
)

func historyServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var deleted []string
	now := time.Now().UTC()
	items := []history.Item{
		{ID: "a1", Query: "cats", Result: "felines", Effort: "low", Model: "gemini-2.5-flash", Timestamp: now.Format(time.RFC3339)},
		{ID: "b2", Query: "dogs", Result: "canines", Effort: "high", Model: "gemini-2.5-pro", Timestamp: now.AddDate(0, 0, -10).Format(time.RFC3339)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(history.ListResponse{Histories: items, Total: len(items)})
	})
	mux.HandleFunc("GET /api/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, it := range items {
			if it.ID == r.PathValue("id") {
				json.NewEncoder(w).Encode(it)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("DELETE /api/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		deleted = append(deleted, id)
		json.NewEncoder(w).Encode(history.DeleteResponse{Success: id == "a1"})
	})
	mux.HandleFunc("DELETE /api/history", func(w http.ResponseWriter, r *http.Request) {
		deleted = append(deleted, "*")
		json.NewEncoder(w).Encode(history.DeleteResponse{Success: true})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &deleted
}

func run(t *testing.T, apiURL string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--api-url", apiURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryList(t *testing.T) {
	ts, _ := historyServer(t)

	out, err := run(t, ts.URL, "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	for _, want := range []string{"ID", "a1", "cats", "b2", "dogs", "gemini-2.5-pro"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryList_LocalSearch(t *testing.T) {
	ts, _ := historyServer(t)

	out, err := run(t, ts.URL, "history", "list", "--search", "CANINE")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "dogs") || strings.Contains(out, "cats") {
		t.Errorf("expected only the dogs session:\n%s", out)
	}

	out, _ = run(t, ts.URL, "history", "list", "--search", "zebra")
	if !strings.Contains(out, "No research history.") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

func TestHistoryShow(t *testing.T) {
	ts, _ := historyServer(t)

	out, err := run(t, ts.URL, "history", "show", "a1")
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	if !strings.Contains(out, "Question:\ncats") || !strings.Contains(out, "Answer:\nfelines") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, ts.URL, "history", "show", "missing"); err == nil {
		t.Error("expected error for a missing item")
	}
}

func TestHistoryDelete(t *testing.T) {
	ts, deleted := historyServer(t)

	out, err := run(t, ts.URL, "history", "delete", "a1")
	if err != nil {
		t.Fatalf("history delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted a1") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := run(t, ts.URL, "history", "delete", "b2"); err == nil {
		t.Error("expected error when the service does not confirm deletion")
	}
	if len(*deleted) != 2 {
		t.Errorf("expected 2 delete requests, got %v", *deleted)
	}
}

func TestHistoryClear(t *testing.T) {
	ts, deleted := historyServer(t)

	if _, err := run(t, ts.URL, "history", "clear"); err == nil {
		t.Error("clear without --yes must fail")
	}
	if len(*deleted) != 0 {
		t.Fatalf("nothing should be deleted without --yes, got %v", *deleted)
	}

	out, err := run(t, ts.URL, "history", "clear", "--yes")
	if err != nil {
		t.Fatalf("history clear failed: %v", err)
	}
	if !strings.Contains(out, "History cleared.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestHistoryStats(t *testing.T) {
	ts, _ := historyServer(t)

	out, err := run(t, ts.URL, "history", "stats")
	if err != nil {
		t.Fatalf("history stats failed: %v", err)
	}
	if !strings.Contains(out, "Total sessions:  2") || !strings.Contains(out, "Last 7 days:     1") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := historyServer(t)

	out, err := run(t, ts.URL, "health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, "healthy") {
		t.Errorf("unexpected output: %s", out)
	}

	ts.Close()
	if _, err := run(t, ts.URL, "health"); err == nil {
		t.Error("expected error for an unreachable service")
	}
}
