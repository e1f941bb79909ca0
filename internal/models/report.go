package models

import "time"

// AggregateReport is the composite of all check results for one audit run
type AggregateReport struct {
	ID             string        `json:"id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	Pages          []string      `json:"pages,omitempty"`
	OverallScore   float64       `json:"overall_score"`
	Checks         []CheckResult `json:"checks"`
	CriticalIssues []string      `json:"critical_issues"`
	Summary        string        `json:"summary"`
}

// FailedCount returns the number of checks that did not pass
func (r *AggregateReport) FailedCount() int {
	count := 0
	for _, c := range r.Checks {
		if !c.Passed {
			count++
		}
	}
	return count
}

// ReportSummary is the archive listing entry for a stored report
type ReportSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	OverallScore float64   `json:"overall_score"`
	Pages        int       `json:"pages"`
	Failed       int       `json:"failed"`
	Summary      string    `json:"summary"`
}
