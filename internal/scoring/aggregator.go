// Package scoring folds check results into one aggregate report and runs
// checks behind a boundary that turns their failures into score-0 results.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"rtl-layout-auditor/internal/models"
)

const (
	excellentThreshold = 9.0
	goodThreshold      = 7.0
	fairThreshold      = 5.0

	// Checks scoring at or below this are listed as critical
	criticalThreshold = 5.0
)

// Aggregate combines check results into a report. The overall score is the
// unweighted mean of the check scores: every check counts once no matter how
// many issues it found.
func Aggregate(results []models.CheckResult) *models.AggregateReport {
	report := &models.AggregateReport{
		CreatedAt:      time.Now().UTC(),
		Checks:         make([]models.CheckResult, len(results)),
		CriticalIssues: []string{},
	}
	copy(report.Checks, results)

	var total float64
	for _, r := range results {
		total += r.Score
		if r.Score <= criticalThreshold {
			report.CriticalIssues = append(report.CriticalIssues,
				fmt.Sprintf("%s: %s", r.Name, strings.Join(r.Issues, "; ")))
		}
	}
	if len(results) > 0 {
		report.OverallScore = total / float64(len(results))
	}

	report.Summary = Summarize(report.OverallScore, report.FailedCount(), len(results))
	return report
}

// Summarize produces the human summary sentence for an overall score. The tier
// follows the score as displayed, rounded to one decimal.
func Summarize(overall float64, failed, checks int) string {
	if checks == 0 {
		return "No checks were run"
	}
	overall = models.RoundScore(overall)
	switch {
	case overall >= excellentThreshold:
		return "Excellent RTL support, no major issues"
	case overall >= goodThreshold:
		return fmt.Sprintf("Good RTL support, %d minor %s", failed, plural(failed, "issue", "issues"))
	case overall >= fairThreshold:
		return fmt.Sprintf("RTL support needs improvement, %d %s", failed, plural(failed, "issue", "issues"))
	default:
		return fmt.Sprintf("Poor RTL support, %d critical %s must be fixed", failed, plural(failed, "issue", "issues"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
