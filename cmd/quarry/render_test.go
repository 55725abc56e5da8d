package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/quarry/internal/activity"
	"github.com/MikeSquared-Agency/quarry/internal/history"
	"github.com/MikeSquared-Agency/quarry/internal/session"
)

func TestPrintEntry(t *testing.T) {
	tests := []struct {
		entry activity.Entry
		want  string
	}{
		{activity.Entry{Title: "Reflection", Data: "Analysing Web Research Results"}, "• Reflection: Analysing Web Research Results\n"},
		{activity.Entry{Title: "Generating Search Queries"}, "• Generating Search Queries\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printEntry(&buf, tt.entry)
		if buf.String() != tt.want {
			t.Errorf("printEntry(%+v) = %q, want %q", tt.entry, buf.String(), tt.want)
		}
	}
}

func TestPrintAnswer(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, []session.Message{
		{Type: session.MessageHuman, Content: "q"},
		{Type: session.MessageAI, Content: "first"},
		{Type: session.MessageHuman, Content: "q2"},
		{Type: session.MessageAI, Content: "second"},
	})
	if buf.String() != "\nsecond\n" {
		t.Errorf("unexpected answer output %q", buf.String())
	}

	buf.Reset()
	printAnswer(&buf, []session.Message{{Type: session.MessageHuman, Content: "q"}})
	if !strings.Contains(buf.String(), "without an answer") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintItem(t *testing.T) {
	dur := int64(1500)
	var buf bytes.Buffer
	printItem(&buf, history.Item{
		ID:            "x",
		Query:         "q",
		Result:        "r",
		Timestamp:     "not a timestamp",
		SearchQueries: []string{"s1", "s2"},
		DurationMs:    &dur,
	})
	out := buf.String()
	for _, want := range []string{"not a timestamp", "1.5s", "s1, s2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"日本語のテキスト", 4, "日本語…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
