package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one progress update from the research pipeline. Exactly one key is
// expected: the name of the stage that produced it.
type Event map[string]json.RawMessage

// Entry is a single human-readable line of the activity timeline.
type Entry struct {
	Title string `json:"title"`
	Data  string `json:"data"`
}

// Label caps for the sources mentioned in research entries.
const (
	parallelResearchLabels = 2
	webResearchLabels      = 3
)

type rule struct {
	tag      string
	title    string
	terminal bool
	detail   func(payload json.RawMessage) string
}

func fixed(text string) func(json.RawMessage) string {
	return func(json.RawMessage) string { return text }
}

// rules is evaluated top to bottom; the multi-stage pipeline tags come before
// the academic ones, which come before the legacy single-loop tags.
var rules = []rule{
	// Multi-stage pipeline.
	{tag: "enhanced_planner", title: "Research Planning", detail: plannerDetail},
	{tag: "focused_researcher", title: "Parallel Research", detail: parallelResearchDetail},
	{tag: "aggregate_research_results", title: "Research Aggregation",
		detail: fixed("Synchronizing all parallel research findings for comprehensive analysis.")},
	{tag: "synthesizer", title: "Report Synthesis",
		detail: fixed("Integrating research findings into coherent, structured report.")},
	{tag: "revise_report", title: "Report Revision",
		detail: fixed("Improving report based on quality assessment feedback.")},
	{tag: "critique_agent", title: "Quality Review",
		detail: fixed("Evaluating report quality and providing improvement feedback.")},
	{tag: "final_polish", title: "Final Polish", terminal: true,
		detail: fixed("Applying final touches and completing the research report.")},

	// Academic paper pipeline.
	{tag: "academic_background_generator", title: "Background & Objective",
		detail: fixed("Generating academic background and research objectives based on factual analysis.")},
	{tag: "academic_framework_planner", title: "Framework Planning",
		detail: fixed("Creating comprehensive academic paper framework with structured methodology.")},
	{tag: "academic_abstract_generator", title: "Abstract Generation",
		detail: fixed("Synthesizing key findings into concise academic abstract.")},
	{tag: "literature_researcher", title: "Literature Research",
		detail: fixed("Conducting systematic literature review and fact verification from authoritative sources.")},
	{tag: "academic_synthesizer", title: "Academic Synthesis",
		detail: fixed("Integrating research findings into structured academic paper format.")},
	{tag: "academic_reviewer", title: "Academic Review", terminal: true,
		detail: fixed("Performing rigorous academic quality review and fact-checking.")},

	// Legacy single-loop pipeline.
	{tag: "generate_query", title: "Generating Search Queries", detail: queryDetail},
	{tag: "web_research", title: "Web Research", detail: webResearchDetail},
	{tag: "reflection", title: "Reflection", detail: fixed("Analysing Web Research Results")},
	{tag: "finalize_answer", title: "Finalizing Answer", terminal: true,
		detail: fixed("Composing and presenting the final answer.")},
}

// Tags returns every stage tag the classifier recognises, in priority order.
func Tags() []string {
	tags := make([]string, len(rules))
	for i, r := range rules {
		tags[i] = r.tag
	}
	return tags
}

// Classify maps a progress event to at most one timeline entry. ok is false
// when no recognised stage tag is present. terminal reports whether the stage
// marks the run as functionally complete. Classify never fails: malformed
// stage payloads degrade to zero counts and empty labels.
func Classify(ev Event) (entry Entry, ok, terminal bool) {
	for _, r := range rules {
		payload, found := ev[r.tag]
		if !found || !present(payload) {
			continue
		}
		return Entry{Title: r.title, Data: r.detail(payload)}, true, r.terminal
	}
	return Entry{}, false, false
}

// present treats the JSON falsy literals as a missing tag.
func present(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}

func plannerDetail(payload json.RawMessage) string {
	var p struct {
		StructuredPlan struct {
			SubTopics []json.RawMessage `json:"sub_topics"`
		} `json:"structured_plan"`
	}
	_ = json.Unmarshal(payload, &p)
	return fmt.Sprintf("Created structured research plan with %d sub-topics for comprehensive investigation.",
		len(p.StructuredPlan.SubTopics))
}

func parallelResearchDetail(payload json.RawMessage) string {
	count, labels := gatheredSources(payload, parallelResearchLabels)
	if len(labels) == 0 {
		return fmt.Sprintf("Completed focused research - gathered %d sources.", count)
	}
	return fmt.Sprintf("Completed focused research - gathered %d sources from %s.", count, strings.Join(labels, ", "))
}

func webResearchDetail(payload json.RawMessage) string {
	count, labels := gatheredSources(payload, webResearchLabels)
	related := "N/A"
	if len(labels) > 0 {
		related = strings.Join(labels, ", ")
	}
	return fmt.Sprintf("Gathered %d sources. Related to: %s.", count, related)
}

func queryDetail(payload json.RawMessage) string {
	var p struct {
		SearchQuery []json.RawMessage `json:"search_query"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}
	queries := make([]string, 0, len(p.SearchQuery))
	for _, raw := range p.SearchQuery {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			queries = append(queries, s)
			continue
		}
		var q struct {
			Query string `json:"query"`
		}
		if json.Unmarshal(raw, &q) == nil && q.Query != "" {
			queries = append(queries, q.Query)
		}
	}
	return strings.Join(queries, ", ")
}

// gatheredSources counts sources_gathered records and returns up to limit
// distinct non-empty labels in first-seen order.
func gatheredSources(payload json.RawMessage, limit int) (int, []string) {
	var p struct {
		SourcesGathered []json.RawMessage `json:"sources_gathered"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, nil
	}

	seen := make(map[string]bool)
	var labels []string
	for _, raw := range p.SourcesGathered {
		var s struct {
			Label string `json:"label"`
		}
		if json.Unmarshal(raw, &s) != nil || s.Label == "" || seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		if len(labels) < limit {
			labels = append(labels, s.Label)
		}
	}
	return len(p.SourcesGathered), labels
}
