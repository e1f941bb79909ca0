package models

import "math"

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// CheckResult is the uniform output of every check
type CheckResult struct {
	Name        string   `json:"name"`
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// NewCheckResult builds a result with a clamped score. A check passes when it
// reported no issues.
func NewCheckResult(name string, score float64, issues, suggestions []string) CheckResult {
	if issues == nil {
		issues = []string{}
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return CheckResult{
		Name:        name,
		Passed:      len(issues) == 0,
		Score:       ClampScore(score),
		Issues:      issues,
		Suggestions: suggestions,
	}
}

// ClampScore limits a score to [0, 10]
func ClampScore(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, score))
}

// RoundScore rounds a score to one decimal place
func RoundScore(score float64) float64 {
	return math.Round(score*10) / 10
}
