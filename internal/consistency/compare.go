package consistency

import (
	"fmt"
	"math"

	"rtl-layout-auditor/internal/models"
)

// Both gates must pass before a difference is reported: an absolute pixel
// floor for tiny elements and a percentage of element size for large viewports.
const (
	pixelFloor = 10

	positionFlagPercent   = 5
	positionMediumPercent = 10
	positionHighPercent   = 20

	sizeFlagPercent = 10
	sizeHighPercent = 25

	maxDiffPercent = 100
)

// ComparePair compares two same-role observations from different pages and
// returns the position and size inconsistencies between them. Observations
// from the same page never produce an inconsistency.
func ComparePair(a, b models.ElementObservation) []models.Inconsistency {
	if a.Page == b.Page {
		return nil
	}

	var found []models.Inconsistency
	if inc, ok := comparePosition(a, b); ok {
		found = append(found, inc)
	}
	if inc, ok := compareSize(a, b); ok {
		found = append(found, inc)
	}
	return found
}

func comparePosition(a, b models.ElementObservation) (models.Inconsistency, bool) {
	xDiff := abs(a.Box.X - b.Box.X)
	yDiff := abs(a.Box.Y - b.Box.Y)
	if xDiff <= pixelFloor && yDiff <= pixelFloor {
		return models.Inconsistency{}, false
	}

	diff := percentOf(max(xDiff, yDiff), max(a.Box.Width, b.Box.Width, 1))
	if diff <= positionFlagPercent {
		return models.Inconsistency{}, false
	}

	severity := models.SeverityLow
	switch {
	case diff > positionHighPercent:
		severity = models.SeverityHigh
	case diff > positionMediumPercent:
		severity = models.SeverityMedium
	}

	return models.Inconsistency{
		Role:        a.Role,
		Property:    models.PropertyPosition,
		PageA:       a.Page,
		PageB:       b.Page,
		ValueA:      formatPosition(a.Box),
		ValueB:      formatPosition(b.Box),
		DiffPercent: min(diff, maxDiffPercent),
		Severity:    severity,
	}, true
}

func compareSize(a, b models.ElementObservation) (models.Inconsistency, bool) {
	widthDiff := abs(a.Box.Width - b.Box.Width)
	heightDiff := abs(a.Box.Height - b.Box.Height)
	if widthDiff <= pixelFloor && heightDiff <= pixelFloor {
		return models.Inconsistency{}, false
	}

	largest := max(a.Box.Width, b.Box.Width, a.Box.Height, b.Box.Height, 1)
	diff := percentOf(max(widthDiff, heightDiff), largest)
	if diff <= sizeFlagPercent {
		return models.Inconsistency{}, false
	}

	// Size has no low tier.
	severity := models.SeverityMedium
	if diff > sizeHighPercent {
		severity = models.SeverityHigh
	}

	return models.Inconsistency{
		Role:        a.Role,
		Property:    models.PropertySize,
		PageA:       a.Page,
		PageB:       b.Page,
		ValueA:      formatSize(a.Box),
		ValueB:      formatSize(b.Box),
		DiffPercent: min(diff, maxDiffPercent),
		Severity:    severity,
	}, true
}

// compareGroup runs ComparePair over every cross-page pair of a role group in
// index order (i < j). If only is non-empty, pairs not involving that page are
// skipped.
func compareGroup(group RoleGroup, only string) []models.Inconsistency {
	var found []models.Inconsistency
	obs := group.Observations
	for i := 0; i < len(obs); i++ {
		for j := i + 1; j < len(obs); j++ {
			if only != "" && obs[i].Page != only && obs[j].Page != only {
				continue
			}
			found = append(found, ComparePair(obs[i], obs[j])...)
		}
	}
	return found
}

func percentOf(n, d int) int {
	return int(math.Round(float64(n) / float64(d) * 100))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatPosition(b models.Box) string {
	return fmt.Sprintf("(%d,%d)", b.X, b.Y)
}

func formatSize(b models.Box) string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}
