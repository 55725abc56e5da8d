package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MikeSquared-Agency/quarry/internal/activity"
	"github.com/MikeSquared-Agency/quarry/internal/history"
	"github.com/MikeSquared-Agency/quarry/internal/session"
)

const queryWidth = 60

func printEntry(w io.Writer, e activity.Entry) {
	if e.Data == "" {
		fmt.Fprintf(w, "• %s\n", e.Title)
		return
	}
	fmt.Fprintf(w, "• %s: %s\n", e.Title, e.Data)
}

// printAnswer prints the last agent message, if the run produced one.
func printAnswer(w io.Writer, msgs []session.Message) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == session.MessageAI {
			fmt.Fprintf(w, "\n%s\n", msgs[i].Content)
			return
		}
	}
	fmt.Fprintln(w, "\nThe run finished without an answer.")
}

func printItems(w io.Writer, items []history.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tEFFORT\tMODEL\tQUESTION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, when(it.Timestamp), it.Effort, it.Model, truncate(it.Query, queryWidth))
	}
	tw.Flush()
}

func printItem(w io.Writer, it history.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	fmt.Fprintf(tw, "When:\t%s\n", when(it.Timestamp))
	fmt.Fprintf(tw, "Effort:\t%s\n", it.Effort)
	fmt.Fprintf(tw, "Model:\t%s\n", it.Model)
	fmt.Fprintf(tw, "Sources:\t%d\n", it.SourcesCount)
	if it.DurationMs != nil {
		fmt.Fprintf(tw, "Duration:\t%s\n", (time.Duration(*it.DurationMs) * time.Millisecond).String())
	}
	if len(it.SearchQueries) > 0 {
		fmt.Fprintf(tw, "Searches:\t%s\n", strings.Join(it.SearchQueries, ", "))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nQuestion:\n%s\n\nAnswer:\n%s\n", it.Query, it.Result)
}

// when renders a stored timestamp in local time, or as-is if it does not parse.
func when(ts string) string {
	t, ok := history.ParseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
