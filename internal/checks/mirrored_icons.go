package checks

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
)

const (
	mirroredIconPenalty = 0.5
	maxIconIssues       = 20
)

var (
	directionalHints = []string{"arrow-left", "arrow-right", "chevron-left", "chevron-right", "caret-left", "caret-right", "arrow_back", "arrow_forward", "back", "forward"}
	mirroringHints   = []string{"flip", "rtl", "mirror", "scalex(-1)", "rotatey(180deg)"}
	iconTags         = map[string]bool{"i": true, "svg": true, "span": true, "img": true}
)

type mirroredIconsCheck struct {
	logger arbor.ILogger
}

// NewMirroredIconsCheck flags directional icons on RTL pages that are not
// mirrored.
func NewMirroredIconsCheck(logger arbor.ILogger) interfaces.Check {
	return &mirroredIconsCheck{logger: logger}
}

func (c *mirroredIconsCheck) Name() string {
	return "Mirrored icons"
}

func (c *mirroredIconsCheck) Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error) {
	var issues []string
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return models.CheckResult{}, err
		}
		if !isRTLPage(page) || page.HTML == "" {
			continue
		}

		doc, err := common.ParseHTML(page.HTML)
		if err != nil {
			return models.CheckResult{}, fmt.Errorf("page %s: %w", page.Page.ID, err)
		}
		for _, hint := range unmirroredIcons(doc) {
			issues = append(issues, fmt.Sprintf("%s: directional icon %q is not mirrored", page.Page.ID, hint))
		}
	}

	var suggestions []string
	if len(issues) > 0 {
		suggestions = append(suggestions, `Flip directional icons under [dir="rtl"] with transform: scaleX(-1)`)
	}

	score := models.MaxScore - mirroredIconPenalty*float64(len(issues))
	c.logger.Debug().Int("unmirrored", len(issues)).Msg("Mirrored icons check completed")
	return models.NewCheckResult(c.Name(), models.RoundScore(score), limitIssues(issues, maxIconIssues), suggestions), nil
}

func unmirroredIcons(doc *html.Node) []string {
	var found []string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && iconTags[n.Data] {
			descriptor := strings.ToLower(common.GetAttribute(n, "class") + " " + common.GetAttribute(n, "aria-label") + " " + common.GetAttribute(n, "data-icon"))
			if hint := matchWord(descriptor, directionalHints); hint != "" {
				style := strings.ReplaceAll(strings.ToLower(common.GetAttribute(n, "style")), " ", "")
				if matchHint(descriptor+" "+style, mirroringHints) == "" {
					found = append(found, hint)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)
	return found
}

// matchWord matches hints on word boundaries, treating dashes and underscores
// as separators, so "back" matches "icon-back" but not "feedback".
func matchWord(s string, hints []string) string {
	words := " " + strings.Join(splitWords(s), " ") + " "
	for _, h := range hints {
		if strings.Contains(words, " "+strings.Join(splitWords(h), " ")+" ") {
			return h
		}
	}
	return ""
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchHint(s string, hints []string) string {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return h
		}
	}
	return ""
}
