package effort

import "fmt"

// Level is the coarse effort selector shown to the user.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// RunParameters are the concrete knobs sent to the research pipeline.
type RunParameters struct {
	InitialSearchQueryCount int    `json:"initial_search_query_count"`
	MaxResearchLoops        int    `json:"max_research_loops"`
	ReasoningModel          string `json:"reasoning_model"`
}

// ConfigurationError is returned for an effort selector outside Levels().
type ConfigurationError struct {
	Effort string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid effort %q: want low, medium or high", e.Effort)
}

// Levels returns the valid selectors, lowest first.
func Levels() []Level {
	return []Level{Low, Medium, High}
}

// Map returns (initial_search_query_count, max_research_loops) for an effort level.
func Map(level string) (queries, loops int, err error) {
	switch Level(level) {
	case Low:
		return 1, 1, nil
	case Medium:
		return 3, 3, nil
	case High:
		return 5, 10, nil
	default:
		return 0, 0, &ConfigurationError{Effort: level}
	}
}

// Parameters builds the full run parameters for an effort level and model.
func Parameters(level, model string) (RunParameters, error) {
	queries, loops, err := Map(level)
	if err != nil {
		return RunParameters{}, err
	}
	return RunParameters{
		InitialSearchQueryCount: queries,
		MaxResearchLoops:        loops,
		ReasoningModel:          model,
	}, nil
}
