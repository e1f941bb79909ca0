package checks

import (
	"context"
	"fmt"
	"strings"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

type textDirectionCheck struct {
	logger arbor.ILogger
}

// NewTextDirectionCheck verifies every page's root element declares dir="rtl"
func NewTextDirectionCheck(logger arbor.ILogger) interfaces.Check {
	return &textDirectionCheck{logger: logger}
}

func (c *textDirectionCheck) Name() string {
	return "Text direction"
}

func (c *textDirectionCheck) Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error) {
	var issues []string
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return models.CheckResult{}, err
		}

		dir, err := documentDir(page)
		if err != nil {
			return models.CheckResult{}, fmt.Errorf("page %s: %w", page.Page.ID, err)
		}
		if dir != "rtl" {
			if dir == "" {
				dir = "unset"
			}
			issues = append(issues, fmt.Sprintf("%s: document direction is %s", page.Page.ID, dir))
		}
	}

	score := models.MaxScore
	if len(pages) > 0 {
		score -= models.MaxScore * float64(len(issues)) / float64(len(pages))
	}

	var suggestions []string
	if len(issues) > 0 {
		suggestions = append(suggestions, `Set dir="rtl" on the <html> element for RTL locales instead of relying on text-align`)
	}

	c.logger.Debug().Int("pages", len(pages)).Int("ltr_pages", len(issues)).Msg("Text direction check completed")
	return models.NewCheckResult(c.Name(), models.RoundScore(score), issues, suggestions), nil
}

// documentDir returns the captured computed direction, falling back to the
// dir attribute of the root element in the captured HTML.
func documentDir(page models.PageSnapshot) (string, error) {
	if page.Dir != "" {
		return strings.ToLower(page.Dir), nil
	}
	if page.HTML == "" {
		return "", nil
	}

	doc, err := common.ParseHTML(page.HTML)
	if err != nil {
		return "", err
	}
	for _, n := range common.FindNodesByTag(doc, "html") {
		return strings.ToLower(common.GetAttribute(n, "dir")), nil
	}
	return "", nil
}
