package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
)

const (
	hardcodedPenalty = 0.2
	maxExamples      = 3
)

var latinWord = regexp.MustCompile(`[A-Za-z]{3,}`)

type hardcodedStringsCheck struct {
	logger arbor.ILogger
}

// NewHardcodedStringsCheck flags visible Latin text on pages served in an
// RTL language, which usually means a string escaped localisation.
func NewHardcodedStringsCheck(logger arbor.ILogger) interfaces.Check {
	return &hardcodedStringsCheck{logger: logger}
}

func (c *hardcodedStringsCheck) Name() string {
	return "Hardcoded strings"
}

func (c *hardcodedStringsCheck) Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error) {
	var issues []string
	total := 0

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return models.CheckResult{}, err
		}
		if !IsRTLLanguage(page.Lang) || page.HTML == "" {
			continue
		}

		doc, err := common.ParseHTML(page.HTML)
		if err != nil {
			return models.CheckResult{}, fmt.Errorf("page %s: %w", page.Page.ID, err)
		}

		found := hardcodedStrings(doc)
		if len(found) == 0 {
			continue
		}
		total += len(found)

		examples := found
		if len(examples) > maxExamples {
			examples = examples[:maxExamples]
		}
		issues = append(issues, fmt.Sprintf("%s: %d untranslated strings (e.g. %s)",
			page.Page.ID, len(found), quoteAll(examples)))
	}

	var suggestions []string
	if total > 0 {
		suggestions = append(suggestions, "Move user-facing strings into the localisation catalogue")
		suggestions = append(suggestions, `Mark intentional Latin text such as brand names with translate="no" or dir="ltr"`)
	}

	c.logger.Debug().Int("strings", total).Msg("Hardcoded strings check completed")
	score := models.MaxScore - hardcodedPenalty*float64(total)
	return models.NewCheckResult(c.Name(), models.RoundScore(score), issues, suggestions), nil
}

func hardcodedStrings(doc *html.Node) []string {
	var found []string
	for _, n := range common.VisibleTextNodes(doc) {
		if intentionallyLatin(n) {
			continue
		}
		text := strings.TrimSpace(n.Data)
		if latinWord.MatchString(text) {
			found = append(found, text)
		}
	}
	return found
}

func intentionallyLatin(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if common.GetAttribute(p, "translate") == "no" || common.HasClass(p, "notranslate") {
			return true
		}
		if dir := common.GetAttribute(p, "dir"); dir != "" {
			return dir == "ltr"
		}
		if lang := common.GetAttribute(p, "lang"); lang != "" {
			return !IsRTLLanguage(lang)
		}
	}
	return false
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		if r := []rune(v); len(r) > 40 {
			v = string(r[:40]) + "…"
		}
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
