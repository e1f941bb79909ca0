package consistency

import (
	"context"
	"testing"

	"rtl-layout-auditor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(NewPositionStore(), arbor.NewLogger())
}

func TestAnalyze_BackButtonMovesAcrossPages(t *testing.T) {
	a := newTestAnalyzer()
	require.NoError(t, a.Store().Record("home", []models.ElementObservation{obs(models.RoleBackButton, "", 10, 20, 40, 40)}))
	require.NoError(t, a.Store().Record("settings", []models.ElementObservation{obs(models.RoleBackButton, "", 300, 20, 40, 40)}))

	found := a.FindInconsistencies()
	require.Len(t, found, 1)
	assert.Equal(t, models.PropertyPosition, found[0].Property)
	assert.Equal(t, models.SeverityHigh, found[0].Severity)
	assert.Equal(t, models.RoleBackButton, found[0].Role)
	assert.Greater(t, found[0].DiffPercent, 20)
	assert.Equal(t, "(10,20)", found[0].ValueA)
	assert.Equal(t, "(300,20)", found[0].ValueB)

	result := a.Analyze()
	assert.False(t, result.Passed)
	assert.Equal(t, 8.0, result.Score)
	assert.Len(t, result.Issues, 1)
	assert.Len(t, result.Suggestions, 1)
	assert.Equal(t, CheckName, result.Name)
}

func TestAnalyze_IdenticalTabBars(t *testing.T) {
	a := newTestAnalyzer()
	for _, page := range []string{"home", "search", "profile"} {
		require.NoError(t, a.Store().Record(page, []models.ElementObservation{obs(models.RoleTabBar, "", 0, 680, 360, 60)}))
	}

	result := a.Analyze()
	assert.True(t, result.Passed)
	assert.Equal(t, 10.0, result.Score)
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Suggestions)
}

func TestAnalyze_EmptyStore(t *testing.T) {
	result := newTestAnalyzer().Analyze()
	assert.True(t, result.Passed)
	assert.Equal(t, 10.0, result.Score)
}

func TestAnalyze_SingleObservationRoleSkipped(t *testing.T) {
	a := newTestAnalyzer()
	require.NoError(t, a.Store().Record("home", []models.ElementObservation{obs(models.RolePageTitle, "", 0, 0, 100, 20)}))
	require.NoError(t, a.Store().Record("settings", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))
	assert.Empty(t, a.FindInconsistencies())
}

func TestComparePair_PositionBoundary(t *testing.T) {
	tests := []struct {
		name     string
		xDiff    int
		flagged  bool
		severity models.Severity
	}{
		{"within pixel floor", 10, false, ""},
		{"exactly five percent", 15, false, ""},
		{"six percent", 18, true, models.SeverityLow},
		{"exactly ten percent", 30, true, models.SeverityLow},
		{"eleven percent", 33, true, models.SeverityMedium},
		{"exactly twenty percent", 60, true, models.SeverityMedium},
		{"twenty one percent", 63, true, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := obs(models.RolePrimaryButton, "home", 30, 600, 300, 48)
			b := obs(models.RolePrimaryButton, "settings", 30+tt.xDiff, 600, 300, 48)

			found := ComparePair(a, b)
			if !tt.flagged {
				assert.Empty(t, found)
				return
			}
			require.Len(t, found, 1)
			assert.Equal(t, models.PropertyPosition, found[0].Property)
			assert.Equal(t, tt.severity, found[0].Severity)
		})
	}
}

func TestComparePair_SizeBoundary(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		flagged  bool
		severity models.Severity
	}{
		{"exactly ten percent", 180, false, ""},
		{"eleven percent", 178, true, models.SeverityMedium},
		{"exactly twenty five percent", 150, true, models.SeverityMedium},
		{"twenty six percent", 148, true, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := obs(models.RolePrimaryButton, "home", 0, 600, 200, 50)
			b := obs(models.RolePrimaryButton, "settings", 0, 600, tt.width, 50)

			found := ComparePair(a, b)
			if !tt.flagged {
				assert.Empty(t, found)
				return
			}
			require.Len(t, found, 1)
			assert.Equal(t, models.PropertySize, found[0].Property)
			assert.Equal(t, tt.severity, found[0].Severity)
			assert.Equal(t, "200x50", found[0].ValueA)
		})
	}
}

func TestComparePair_SmallElementNoise(t *testing.T) {
	// 8px on a 20px icon is 40% but stays under the pixel floor.
	a := obs(models.RoleBackButton, "home", 10, 10, 20, 20)
	b := obs(models.RoleBackButton, "settings", 18, 18, 28, 28)
	assert.Empty(t, ComparePair(a, b))
}

func TestComparePair_Symmetric(t *testing.T) {
	pairs := [][2]models.ElementObservation{
		{obs(models.RoleBackButton, "home", 10, 20, 40, 40), obs(models.RoleBackButton, "settings", 300, 20, 40, 40)},
		{obs(models.RoleHeader, "home", 0, 0, 360, 56), obs(models.RoleHeader, "settings", 0, 40, 320, 80)},
		{obs(models.RolePrimaryButton, "home", 30, 600, 300, 48), obs(models.RolePrimaryButton, "settings", 48, 600, 240, 48)},
	}

	for _, p := range pairs {
		ab := ComparePair(p[0], p[1])
		ba := ComparePair(p[1], p[0])
		require.Len(t, ba, len(ab))
		for i := range ab {
			assert.Equal(t, ab[i].Property, ba[i].Property)
			assert.Equal(t, ab[i].DiffPercent, ba[i].DiffPercent)
			assert.Equal(t, ab[i].Severity, ba[i].Severity)
			assert.Equal(t, ab[i].Key(), ba[i].Key())
		}
	}
}

func TestComparePair_SamePageExcluded(t *testing.T) {
	a := obs(models.RolePrimaryButton, "home", 0, 100, 100, 40)
	b := obs(models.RolePrimaryButton, "home", 200, 600, 300, 80)
	assert.Empty(t, ComparePair(a, b))
}

func TestDeduplicate_KeepsFirstPerUnorderedPair(t *testing.T) {
	found := []models.Inconsistency{
		{Role: models.RolePrimaryButton, Property: models.PropertyPosition, PageA: "home", PageB: "settings", Severity: models.SeverityLow},
		{Role: models.RolePrimaryButton, Property: models.PropertyPosition, PageA: "settings", PageB: "home", Severity: models.SeverityHigh},
		{Role: models.RolePrimaryButton, Property: models.PropertySize, PageA: "home", PageB: "settings", Severity: models.SeverityMedium},
		{Role: models.RoleHeader, Property: models.PropertyPosition, PageA: "home", PageB: "settings", Severity: models.SeverityMedium},
	}

	deduped := Deduplicate(found)
	require.Len(t, deduped, 3)
	assert.Equal(t, models.SeverityLow, deduped[0].Severity)
	assert.Equal(t, models.PropertySize, deduped[1].Property)
	assert.Equal(t, models.RoleHeader, deduped[2].Role)

	assert.Equal(t, deduped, Deduplicate(deduped))
}

func TestAnalyze_DuplicateButtonsCollapse(t *testing.T) {
	a := newTestAnalyzer()
	require.NoError(t, a.Store().Record("home", []models.ElementObservation{
		obs(models.RolePrimaryButton, "", 16, 600, 300, 48),
		obs(models.RolePrimaryButton, "", 16, 660, 300, 48),
	}))
	require.NoError(t, a.Store().Record("settings", []models.ElementObservation{
		obs(models.RolePrimaryButton, "", 100, 600, 300, 48),
	}))

	found := a.FindInconsistencies()
	require.Len(t, found, 1, "one inconsistency per role, property and page pair")
	assert.Equal(t, "(16,600)", found[0].ValueA)
}

func TestScore(t *testing.T) {
	high := models.Inconsistency{Severity: models.SeverityHigh}
	medium := models.Inconsistency{Severity: models.SeverityMedium}
	low := models.Inconsistency{Severity: models.SeverityLow}

	assert.Equal(t, 10.0, Score(nil))
	assert.Equal(t, 8.0, Score([]models.Inconsistency{high}))
	assert.Equal(t, 7.0, Score([]models.Inconsistency{high, medium}))
	assert.Equal(t, 9.1, Score([]models.Inconsistency{low, low, low}))
	assert.Equal(t, 6.7, Score([]models.Inconsistency{high, medium, low}))
	assert.Equal(t, 0.0, Score([]models.Inconsistency{high, high, high, high, high, high}))
}

func TestScore_MonotonicInHighSeverity(t *testing.T) {
	found := []models.Inconsistency{
		{Severity: models.SeverityLow},
		{Severity: models.SeverityMedium},
	}
	prev := Score(found)
	for i := 0; i < 8; i++ {
		found = append(found, models.Inconsistency{Severity: models.SeverityHigh})
		next := Score(found)
		assert.LessOrEqual(t, next, prev)
		prev = next
	}
}

func TestAnalyze_IssuesCapped(t *testing.T) {
	a := newTestAnalyzer()
	for i := 0; i < 8; i++ {
		page := string(rune('a' + i))
		require.NoError(t, a.Store().Record(page, []models.ElementObservation{
			obs(models.RoleBackButton, "", i*40, 20, 40, 40),
		}))
	}

	result := a.Analyze()
	assert.Len(t, result.Issues, 20)
	assert.False(t, result.Passed)
	assert.Equal(t, 0.0, result.Score)
}

func TestRun_ImplementsCheck(t *testing.T) {
	a := newTestAnalyzer()
	require.NoError(t, a.Store().Record("home", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))

	result, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckCurrentPage_ButtonColors(t *testing.T) {
	a := newTestAnalyzer()
	button := func(y int, color string) models.ElementObservation {
		o := obs(models.RolePrimaryButton, "", 16, y, 328, 48)
		o.ClassName = "btn btn-primary"
		o.BackgroundColor = color
		return o
	}

	result, err := a.CheckCurrentPage("checkout", []models.ElementObservation{
		button(400, "rgb(0, 122, 255)"),
		button(460, "rgb(52, 199, 89)"),
		button(520, "rgb(255, 59, 48)"),
		button(580, "rgba(0, 0, 0, 0)"),
	})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "[medium]")
	assert.Contains(t, result.Issues[0], "color")
	assert.Equal(t, 9.5, result.Score)
}

func TestCheckCurrentPage_TwoColorsAllowed(t *testing.T) {
	a := newTestAnalyzer()
	primary := obs(models.RolePrimaryButton, "", 16, 400, 328, 48)
	primary.ClassName = "btn"
	primary.BackgroundColor = "rgb(0, 122, 255)"
	secondary := primary
	secondary.Box.Y = 460
	secondary.BackgroundColor = "rgb(255, 255, 255)"

	result, err := a.CheckCurrentPage("checkout", []models.ElementObservation{primary, secondary})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 10.0, result.Score)
}

func TestCheckCurrentPage_ButtonColorsOneIssuePerPage(t *testing.T) {
	a := newTestAnalyzer()
	button := func(class string, y int, color string) models.ElementObservation {
		o := obs(models.RolePrimaryButton, "", 16, y, 328, 48)
		o.ClassName = class
		o.BackgroundColor = color
		return o
	}

	result, err := a.CheckCurrentPage("checkout", []models.ElementObservation{
		button("btn a", 100, "rgb(255, 0, 0)"),
		button("btn a", 160, "rgb(0, 255, 0)"),
		button("btn a", 220, "rgb(0, 0, 255)"),
		button("btn b", 280, "rgb(255, 0, 0)"),
		button("btn b", 340, "rgb(0, 255, 0)"),
		button("btn b", 400, "rgb(0, 0, 255)"),
	})
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "btn a, btn b")
	assert.Equal(t, 9.5, result.Score)
}

func TestCheckCurrentPage_ButtonColorsIgnoreOrder(t *testing.T) {
	button := func(width, y int, color string) models.ElementObservation {
		o := obs(models.RolePrimaryButton, "", 16, y, width, 48)
		o.ClassName = "btn"
		o.BackgroundColor = color
		return o
	}
	orders := [][]models.ElementObservation{
		{button(100, 100, "rgb(255, 0, 0)"), button(108, 160, "rgb(0, 255, 0)"), button(116, 220, "rgb(0, 0, 255)")},
		{button(108, 160, "rgb(0, 255, 0)"), button(100, 100, "rgb(255, 0, 0)"), button(116, 220, "rgb(0, 0, 255)")},
		{button(116, 220, "rgb(0, 0, 255)"), button(108, 160, "rgb(0, 255, 0)"), button(100, 100, "rgb(255, 0, 0)")},
	}

	for i, buttons := range orders {
		result, err := newTestAnalyzer().CheckCurrentPage("checkout", buttons)
		require.NoError(t, err)
		assert.Len(t, result.Issues, 1, "order %d", i)
		assert.Equal(t, 9.5, result.Score, "order %d", i)
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 108, median([]int{116, 100, 108}))
	assert.Equal(t, 100, median([]int{108, 100}))
	assert.Equal(t, 7, median([]int{7}))
}

func TestCheckCurrentPage_ComparesAgainstEarlierPages(t *testing.T) {
	a := newTestAnalyzer()
	_, err := a.CheckCurrentPage("home", []models.ElementObservation{obs(models.RoleBackButton, "", 10, 20, 40, 40)})
	require.NoError(t, err)

	result, err := a.CheckCurrentPage("settings", []models.ElementObservation{
		obs(models.RoleBackButton, "", 300, 20, 40, 40),
		obs(models.RoleHeader, "", 0, 0, 360, 56),
	})
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 9.5, result.Score)

	result, err = a.CheckCurrentPage("profile", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)})
	require.NoError(t, err)
	assert.True(t, result.Passed, "pairs not involving the current page are ignored")
}

func TestCheckCurrentPage_InvalidObservation(t *testing.T) {
	a := newTestAnalyzer()
	_, err := a.CheckCurrentPage("home", []models.ElementObservation{obs(models.RoleBackButton, "", 10, 20, 40, -1)})
	assert.ErrorIs(t, err, ErrInvalidObservation)
}
