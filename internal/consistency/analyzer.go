// Package consistency captures where structural UI elements render on each
// page of an audit run and compares them across pages.
//
// The Analyzer never performs I/O: observations are recorded into its
// PositionStore by the audit orchestrator and analysed once every page has
// been captured, or page by page with CheckCurrentPage.
package consistency

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

const (
	// CheckName is the name the analyzer reports under
	CheckName = "Cross-page consistency"

	maxReportedIssues = 20

	highPenalty   = 2.0
	mediumPenalty = 1.0
	lowPenalty    = 0.3

	singlePagePenalty = 0.5

	// More than this many background colors among comparable primary
	// buttons on one page is flagged.
	maxButtonColors = 2
)

// Analyzer turns recorded observations into a consistency CheckResult
type Analyzer struct {
	store  *PositionStore
	logger arbor.ILogger
}

// NewAnalyzer creates an analyzer reading from store
func NewAnalyzer(store *PositionStore, logger arbor.ILogger) *Analyzer {
	return &Analyzer{
		store:  store,
		logger: logger,
	}
}

// Store returns the position store the analyzer reads from
func (a *Analyzer) Store() *PositionStore {
	return a.store
}

// Name implements interfaces.Check
func (a *Analyzer) Name() string {
	return CheckName
}

// Run implements interfaces.Check. The pages argument is ignored: the
// analyzer works from the observations already recorded in its store.
func (a *Analyzer) Run(ctx context.Context, _ []models.PageSnapshot) (models.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return models.CheckResult{}, err
	}
	return a.Analyze(), nil
}

// FindInconsistencies compares every cross-page pair of same-role
// observations and returns the deduplicated inconsistencies.
func (a *Analyzer) FindInconsistencies() []models.Inconsistency {
	var found []models.Inconsistency
	for _, group := range a.store.ByRole() {
		if len(group.Observations) < 2 {
			continue
		}
		found = append(found, compareGroup(group, "")...)
	}
	return Deduplicate(found)
}

// Analyze runs the cross-page comparison over everything recorded so far
func (a *Analyzer) Analyze() models.CheckResult {
	found := a.FindInconsistencies()
	score := Score(found)

	counts := CountBySeverity(found)
	a.logger.Debug().
		Int("pages", len(a.store.Pages())).
		Int("observations", a.store.Len()).
		Int("high", counts[models.SeverityHigh]).
		Int("medium", counts[models.SeverityMedium]).
		Int("low", counts[models.SeverityLow]).
		Str("score", fmt.Sprintf("%.1f", score)).
		Msg("Consistency analysis completed")

	return buildResult(found, score)
}

// CheckCurrentPage records one page and checks it in isolation: the page is
// compared against every page recorded before it, and its comparable primary
// buttons are checked for background color drift.
func (a *Analyzer) CheckCurrentPage(pageID string, observations []models.ElementObservation) (models.CheckResult, error) {
	if err := a.store.Record(pageID, observations); err != nil {
		return models.CheckResult{}, err
	}

	var found []models.Inconsistency
	for _, group := range a.store.ByRole() {
		if len(group.Observations) < 2 {
			continue
		}
		found = append(found, compareGroup(group, pageID)...)
	}
	found = append(found, buttonColorInconsistencies(pageID, a.store.PageObservations(pageID))...)
	found = Deduplicate(found)

	score := models.RoundScore(models.ClampScore(models.MaxScore - singlePagePenalty*float64(len(found))))

	a.logger.Debug().
		Str("page", pageID).
		Int("issues", len(found)).
		Str("score", fmt.Sprintf("%.1f", score)).
		Msg("Single page consistency check completed")

	return buildResult(found, score), nil
}

// Score starts at 10 and subtracts 2 per high, 1 per medium and 0.3 per low
// severity inconsistency, clamped at 0 and rounded to one decimal.
func Score(found []models.Inconsistency) float64 {
	counts := CountBySeverity(found)
	penalty := highPenalty*float64(counts[models.SeverityHigh]) +
		mediumPenalty*float64(counts[models.SeverityMedium]) +
		lowPenalty*float64(counts[models.SeverityLow])
	return models.RoundScore(models.ClampScore(models.MaxScore - penalty))
}

func buildResult(found []models.Inconsistency, score float64) models.CheckResult {
	issues := make([]string, 0, min(len(found), maxReportedIssues))
	for i, inc := range found {
		if i == maxReportedIssues {
			break
		}
		issues = append(issues, inc.String())
	}

	return models.CheckResult{
		Name:        CheckName,
		Passed:      len(found) == 0,
		Score:       score,
		Issues:      issues,
		Suggestions: suggestionsFor(found),
	}
}

func suggestionsFor(found []models.Inconsistency) []string {
	suggestions := []string{}
	seen := make(map[string]bool)
	for _, inc := range found {
		key := string(inc.Role) + "|" + string(inc.Property)
		if seen[key] {
			continue
		}
		seen[key] = true

		var s string
		switch inc.Property {
		case models.PropertyPosition:
			s = fmt.Sprintf("Anchor the %s to the same logical edge on every page (use inset-inline-start/end instead of left/right)", inc.Role)
		case models.PropertySize:
			s = fmt.Sprintf("Use one shared size for the %s across pages", inc.Role)
		case models.PropertyColor:
			s = fmt.Sprintf("Limit %s background colors to the design system's primary and secondary variants", inc.Role)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

// buttonColorInconsistencies groups a page's primary buttons by class and, for
// buttons of comparable size within a class, flags more than two distinct
// background colors. All offending classes fold into one inconsistency so a
// page is penalized once for its button palette.
func buttonColorInconsistencies(pageID string, observations []models.ElementObservation) []models.Inconsistency {
	var classes []string
	byClass := make(map[string][]models.ElementObservation)
	for _, obs := range observations {
		if obs.Role != models.RolePrimaryButton {
			continue
		}
		if _, ok := byClass[obs.ClassName]; !ok {
			classes = append(classes, obs.ClassName)
		}
		byClass[obs.ClassName] = append(byClass[obs.ClassName], obs)
	}
	sort.Strings(classes)

	var labels, palettes []string
	for _, class := range classes {
		distinct := classColors(byClass[class])
		if len(distinct) <= maxButtonColors {
			continue
		}

		label := class
		if label == "" {
			label = "(no class)"
		}
		labels = append(labels, label)
		palettes = append(palettes, strings.Join(distinct, ", "))
	}
	if len(labels) == 0 {
		return nil
	}

	return []models.Inconsistency{{
		Role:     models.RolePrimaryButton,
		Property: models.PropertyColor,
		PageA:    pageID,
		PageB:    pageID,
		ValueA:   strings.Join(labels, ", "),
		ValueB:   strings.Join(palettes, "; "),
		Severity: models.SeverityMedium,
	}}
}

// classColors returns the sorted opaque background colors of the buttons whose
// size is within pixelFloor of the class's median size.
func classColors(buttons []models.ElementObservation) []string {
	widths := make([]int, len(buttons))
	heights := make([]int, len(buttons))
	for i, b := range buttons {
		widths[i] = b.Box.Width
		heights[i] = b.Box.Height
	}
	refWidth, refHeight := median(widths), median(heights)

	colors := make(map[string]bool)
	for _, b := range buttons {
		if abs(b.Box.Width-refWidth) > pixelFloor || abs(b.Box.Height-refHeight) > pixelFloor {
			continue
		}
		if isTransparent(b.BackgroundColor) {
			continue
		}
		colors[b.BackgroundColor] = true
	}

	distinct := make([]string, 0, len(colors))
	for c := range colors {
		distinct = append(distinct, c)
	}
	sort.Strings(distinct)
	return distinct
}

// median of a non-empty slice; the lower middle value for even lengths
func median(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}

func isTransparent(color string) bool {
	c := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(color)), " ", "")
	return c == "" || c == "transparent" || c == "rgba(0,0,0,0)"
}
