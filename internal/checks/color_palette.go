package checks

import (
	"context"
	"fmt"
	"strings"

	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

const (
	maxPaletteColors = 3
	palettePenalty   = 2.0
)

type colorPaletteCheck struct {
	logger arbor.ILogger
}

// NewColorPaletteCheck flags primary buttons using more than three
// background colors across the audited pages.
func NewColorPaletteCheck(logger arbor.ILogger) interfaces.Check {
	return &colorPaletteCheck{logger: logger}
}

func (c *colorPaletteCheck) Name() string {
	return "Color palette"
}

func (c *colorPaletteCheck) Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return models.CheckResult{}, err
	}

	var colors []string
	seen := make(map[string]bool)
	for _, page := range pages {
		for _, obs := range page.Observations {
			if obs.Role != models.RolePrimaryButton {
				continue
			}
			color := normalizeColor(obs.BackgroundColor)
			if color == "" || seen[color] {
				continue
			}
			seen[color] = true
			colors = append(colors, color)
		}
	}

	var issues, suggestions []string
	score := models.MaxScore
	if len(colors) > maxPaletteColors {
		issues = append(issues, fmt.Sprintf("%d distinct primary button colors: %s", len(colors), strings.Join(colors, ", ")))
		suggestions = append(suggestions, "Derive primary button colors from a single design token")
		score -= palettePenalty * float64(len(colors)-maxPaletteColors)
	}

	c.logger.Debug().Int("colors", len(colors)).Msg("Color palette check completed")
	return models.NewCheckResult(c.Name(), score, issues, suggestions), nil
}

func normalizeColor(color string) string {
	c := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(color)), " ", "")
	if c == "transparent" || c == "rgba(0,0,0,0)" {
		return ""
	}
	return c
}
