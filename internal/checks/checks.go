// Package checks holds the independent heuristic checks run against the
// captured pages of an audit. Each check is a DOM or geometry predicate with
// fixed thresholds and produces one CheckResult.
package checks

import (
	"fmt"
	"strings"

	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

// Default returns the heuristic battery in execution order
func Default(logger arbor.ILogger) []interfaces.Check {
	return []interfaces.Check{
		NewTextDirectionCheck(logger),
		NewHardcodedStringsCheck(logger),
		NewTapTargetCheck(logger),
		NewColorPaletteCheck(logger),
		NewMirroredIconsCheck(logger),
	}
}

var rtlLanguages = map[string]bool{
	"ar":  true,
	"he":  true,
	"iw":  true,
	"fa":  true,
	"ur":  true,
	"ps":  true,
	"sd":  true,
	"yi":  true,
	"dv":  true,
	"ckb": true,
	"ug":  true,
}

// IsRTLLanguage reports whether a BCP 47 language tag is written right to left
func IsRTLLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return rtlLanguages[lang]
}

func isRTLPage(page models.PageSnapshot) bool {
	return strings.EqualFold(page.Dir, "rtl") || IsRTLLanguage(page.Lang)
}

func limitIssues(issues []string, limit int) []string {
	if len(issues) <= limit {
		return issues
	}
	extra := len(issues) - limit
	out := append([]string{}, issues[:limit]...)
	return append(out, fmt.Sprintf("... and %d more", extra))
}
