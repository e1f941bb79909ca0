package scoring

import (
	"fmt"
	"strings"

	"rtl-layout-auditor/internal/models"
)

// FormatReport renders a report as aligned text
func FormatReport(report *models.AggregateReport) string {
	var b strings.Builder
	b.WriteString("rtl layout audit\n\n")

	if len(report.Checks) == 0 {
		b.WriteString("  no checks ran\n")
		return b.String()
	}

	maxName := 0
	for _, c := range report.Checks {
		if len(c.Name) > maxName {
			maxName = len(c.Name)
		}
	}

	for _, c := range report.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %4.1f\n", status, maxName, c.Name, c.Score)
		for _, issue := range c.Issues {
			fmt.Fprintf(&b, "        - %s\n", issue)
		}
	}

	if len(report.CriticalIssues) > 0 {
		b.WriteString("\ncritical:\n")
		for _, line := range report.CriticalIssues {
			fmt.Fprintf(&b, "  ! %s\n", line)
		}
	}

	fmt.Fprintf(&b, "\noverall %.1f/10  %s\n", report.OverallScore, report.Summary)
	return b.String()
}
