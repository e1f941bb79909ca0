package scoring

import (
	"context"
	"fmt"
	"runtime/debug"

	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

// Runner executes checks one at a time against the same captured pages
type Runner struct {
	logger   arbor.ILogger
	observer interfaces.AuditObserver
}

// NewRunner creates a check runner. observer may be nil.
func NewRunner(logger arbor.ILogger, observer interfaces.AuditObserver) *Runner {
	return &Runner{
		logger:   logger,
		observer: observer,
	}
}

// RunAll runs checks sequentially in the given order and aggregates their
// results. A failing check is reported with score 0 and never stops the
// others. If ctx is cancelled the run is abandoned and no report is built.
func (r *Runner) RunAll(ctx context.Context, checks []interfaces.Check, pages []models.PageSnapshot) (*models.AggregateReport, error) {
	results := make([]models.CheckResult, 0, len(checks))
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.observer != nil {
			r.observer.CheckStarted(check.Name())
		}

		result := r.RunCheck(ctx, check, pages)

		// A check that failed because the run was aborted is not a check failure.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.observer != nil {
			r.observer.CheckFinished(result)
		}
		results = append(results, result)
	}

	return Aggregate(results), nil
}

// RunCheck runs a single check, converting an error or panic into a failed
// result carrying a diagnostic issue.
func (r *Runner) RunCheck(ctx context.Context, check interfaces.Check, pages []models.PageSnapshot) (result models.CheckResult) {
	name := check.Name()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("check", name).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", string(debug.Stack())).
				Msg("Check panicked")
			result = FailedResult(name, fmt.Errorf("panic: %v", rec))
		}
	}()

	res, err := check.Run(ctx, pages)
	if err != nil {
		r.logger.Warn().Err(err).Str("check", name).Msg("Check failed")
		return FailedResult(name, err)
	}

	res.Name = name
	res.Score = models.ClampScore(res.Score)
	if res.Issues == nil {
		res.Issues = []string{}
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}

	r.logger.Info().
		Str("check", name).
		Str("passed", fmt.Sprintf("%v", res.Passed)).
		Str("score", fmt.Sprintf("%.1f", res.Score)).
		Int("issues", len(res.Issues)).
		Msg("Check completed")

	return res
}

// FailedResult is the result recorded for a check that could not complete
func FailedResult(name string, err error) models.CheckResult {
	return models.CheckResult{
		Name:        name,
		Passed:      false,
		Score:       0,
		Issues:      []string{fmt.Sprintf("check failed to run: %v", err)},
		Suggestions: []string{},
	}
}
