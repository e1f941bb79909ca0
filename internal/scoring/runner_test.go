package scoring

import (
	"context"
	"errors"
	"testing"

	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type stubCheck struct {
	name string
	run  func(ctx context.Context) (models.CheckResult, error)
}

func (s stubCheck) Name() string { return s.name }

func (s stubCheck) Run(ctx context.Context, _ []models.PageSnapshot) (models.CheckResult, error) {
	return s.run(ctx)
}

func fixed(name string, score float64, issues ...string) stubCheck {
	return stubCheck{name: name, run: func(context.Context) (models.CheckResult, error) {
		return models.NewCheckResult(name, score, issues, nil), nil
	}}
}

type recordingObserver struct {
	started  []string
	finished []string
}

func (o *recordingObserver) PageCaptured(models.PageTarget, int) {}
func (o *recordingObserver) CheckStarted(name string)            { o.started = append(o.started, name) }
func (o *recordingObserver) CheckFinished(r models.CheckResult) {
	o.finished = append(o.finished, r.Name)
}
func (o *recordingObserver) AuditFinished(*models.AggregateReport) {}

func TestRunAll_FailingCheckDoesNotAbort(t *testing.T) {
	checks := []interfaces.Check{
		fixed("Text direction", 10),
		stubCheck{name: "Hardcoded strings", run: func(context.Context) (models.CheckResult, error) {
			return models.CheckResult{}, errors.New("invalid selector")
		}},
		stubCheck{name: "Tap targets", run: func(context.Context) (models.CheckResult, error) {
			panic("nil element")
		}},
		fixed("Color palette", 8, "4 colors"),
	}

	observer := &recordingObserver{}
	report, err := NewRunner(arbor.NewLogger(), observer).RunAll(context.Background(), checks, nil)
	require.NoError(t, err)
	require.Len(t, report.Checks, 4)

	names := []string{"Text direction", "Hardcoded strings", "Tap targets", "Color palette"}
	for i, name := range names {
		assert.Equal(t, name, report.Checks[i].Name)
	}

	failed := report.Checks[1]
	assert.False(t, failed.Passed)
	assert.Equal(t, 0.0, failed.Score)
	require.Len(t, failed.Issues, 1)
	assert.Contains(t, failed.Issues[0], "invalid selector")

	panicked := report.Checks[2]
	assert.False(t, panicked.Passed)
	assert.Equal(t, 0.0, panicked.Score)
	assert.Contains(t, panicked.Issues[0], "nil element")

	assert.Equal(t, 4.5, report.OverallScore)
	assert.Equal(t, names, observer.started)
	assert.Equal(t, names, observer.finished)
}

func TestRunAll_CancelledRunProducesNoReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checks := []interfaces.Check{
		fixed("first", 10),
		stubCheck{name: "second", run: func(context.Context) (models.CheckResult, error) {
			cancel()
			return models.CheckResult{}, context.Canceled
		}},
		fixed("third", 10),
	}

	report, err := NewRunner(arbor.NewLogger(), nil).RunAll(ctx, checks, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestRunCheck_ClampsScore(t *testing.T) {
	check := stubCheck{name: "Overeager", run: func(context.Context) (models.CheckResult, error) {
		return models.CheckResult{Name: "other", Passed: true, Score: 14}, nil
	}}

	result := NewRunner(arbor.NewLogger(), nil).RunCheck(context.Background(), check, nil)
	assert.Equal(t, "Overeager", result.Name)
	assert.Equal(t, 10.0, result.Score)
	assert.NotNil(t, result.Issues)
	assert.NotNil(t, result.Suggestions)
}
