package services

import (
	"strings"
	"testing"

	"rtl-layout-auditor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCaptureScript_RoleOrder(t *testing.T) {
	script, err := BuildCaptureScript(map[models.Role]string{
		models.Role("z-custom"): ".z",
		models.RolePageTitle:    "h1",
		models.RoleBackButton:   "[data-role=back]",
		models.Role("a-custom"): ".a",
	})
	require.NoError(t, err)

	back := strings.Index(script, `"back-button"`)
	title := strings.Index(script, `"page-title"`)
	a := strings.Index(script, `"a-custom"`)
	z := strings.Index(script, `"z-custom"`)
	require.True(t, back > 0 && title > 0 && a > 0 && z > 0)
	assert.Less(t, back, title)
	assert.Less(t, title, a)
	assert.Less(t, a, z)
	assert.Contains(t, script, `[data-role=back]`)
	assert.NotContains(t, script, "%s")
}

func TestParseCapture(t *testing.T) {
	raw := `{
		"dir": "RTL",
		"lang": "ar",
		"viewport": {"width": 360, "height": 740},
		"elements": [
			{"role": "back-button", "x": 310, "y": 12, "width": 40, "height": 40, "background": "rgb(0, 0, 0)", "className": "nav-back", "tag": "button", "label": "رجوع"},
			{"role": "header", "x": 0, "y": 0, "width": 0, "height": 56}
		]
	}`
	page := models.PageTarget{ID: "home", URL: "http://localhost/home"}

	snapshot, err := ParseCapture(raw, page, models.Viewport{Width: 1, Height: 1})
	require.NoError(t, err)

	assert.Equal(t, page, snapshot.Page)
	assert.Equal(t, "rtl", snapshot.Dir)
	assert.Equal(t, "ar", snapshot.Lang)
	assert.Equal(t, models.Viewport{Width: 360, Height: 740}, snapshot.Viewport)
	require.Len(t, snapshot.Observations, 1)

	obs := snapshot.Observations[0]
	assert.Equal(t, models.RoleBackButton, obs.Role)
	assert.Equal(t, "home", obs.Page)
	assert.Equal(t, models.Box{X: 310, Y: 12, Width: 40, Height: 40}, obs.Box)
	assert.Equal(t, "nav-back", obs.ClassName)
	assert.Equal(t, snapshot.Viewport, obs.Viewport)
}

func TestParseCapture_FallbackViewport(t *testing.T) {
	fallback := models.Viewport{Width: 360, Height: 740}
	snapshot, err := ParseCapture(`{"dir":"","elements":[]}`, models.PageTarget{ID: "p"}, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, snapshot.Viewport)
	assert.Empty(t, snapshot.Observations)
}

func TestParseCapture_Malformed(t *testing.T) {
	_, err := ParseCapture("not json", models.PageTarget{ID: "p"}, models.Viewport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode capture result")
}
