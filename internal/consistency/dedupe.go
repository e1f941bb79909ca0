package consistency

import "rtl-layout-auditor/internal/models"

// Deduplicate keeps the first inconsistency seen for each role, property and
// unordered page pair. Input order is preserved.
func Deduplicate(found []models.Inconsistency) []models.Inconsistency {
	seen := make(map[string]bool, len(found))
	out := make([]models.Inconsistency, 0, len(found))
	for _, inc := range found {
		key := inc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, inc)
	}
	return out
}

// CountBySeverity tallies inconsistencies per severity
func CountBySeverity(found []models.Inconsistency) map[models.Severity]int {
	counts := make(map[models.Severity]int)
	for _, inc := range found {
		counts[inc.Severity]++
	}
	return counts
}
