package checks

import (
	"context"
	"fmt"

	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

const (
	minTapTarget     = 44
	tapTargetPenalty = 1.0
	maxTapIssues     = 20
)

type tapTargetCheck struct {
	logger arbor.ILogger
}

// NewTapTargetCheck flags tappable elements smaller than 44x44 px
func NewTapTargetCheck(logger arbor.ILogger) interfaces.Check {
	return &tapTargetCheck{logger: logger}
}

func (c *tapTargetCheck) Name() string {
	return "Tap targets"
}

func (c *tapTargetCheck) Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error) {
	var issues []string
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return models.CheckResult{}, err
		}
		for _, obs := range page.Observations {
			if !obs.Role.IsButton() {
				continue
			}
			if obs.Box.Width < minTapTarget || obs.Box.Height < minTapTarget {
				issues = append(issues, fmt.Sprintf("%s on %s is %dx%d (minimum %dx%d)",
					obs.Role, page.Page.ID, obs.Box.Width, obs.Box.Height, minTapTarget, minTapTarget))
			}
		}
	}

	var suggestions []string
	if len(issues) > 0 {
		suggestions = append(suggestions, "Give buttons a minimum 44x44 px hit area with padding or min-width/min-height")
	}

	score := models.MaxScore - tapTargetPenalty*float64(len(issues))
	c.logger.Debug().Int("small_targets", len(issues)).Msg("Tap target check completed")
	return models.NewCheckResult(c.Name(), score, limitIssues(issues, maxTapIssues), suggestions), nil
}
