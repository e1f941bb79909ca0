package services

import (
	"context"
	"sync"
	"time"

	"rtl-layout-auditor/internal/checks"
	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/consistency"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"
	"rtl-layout-auditor/internal/scoring"

	"github.com/ternarybob/arbor"
)

// auditService captures pages one at a time, feeds their element geometry to
// the consistency analyzer and runs the check battery over the snapshots.
type auditService struct {
	source   interfaces.PageSource
	store    *consistency.PositionStore
	analyzer *consistency.Analyzer
	checks   []interfaces.Check
	runner   *scoring.Runner
	observer interfaces.AuditObserver
	logger   arbor.ILogger

	// Audits share one browser and one position store, so they never overlap.
	mu sync.Mutex
}

// NewAuditor creates an auditor. When extra is empty the default heuristic
// battery runs after the consistency analyzer. observer may be nil.
func NewAuditor(source interfaces.PageSource, logger arbor.ILogger, observer interfaces.AuditObserver, extra ...interfaces.Check) interfaces.Auditor {
	store := consistency.NewPositionStore()
	if len(extra) == 0 {
		extra = checks.Default(logger)
	}
	return &auditService{
		source:   source,
		store:    store,
		analyzer: consistency.NewAnalyzer(store, logger),
		checks:   extra,
		runner:   scoring.NewRunner(logger, observer),
		observer: observer,
		logger:   logger,
	}
}

// RunAudit audits pages from a clean position store. Pages that fail to
// render are skipped; cancelling ctx abandons the run without a report.
func (s *auditService) RunAudit(ctx context.Context, pages []models.PageTarget) (*models.AggregateReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.store.Reset()

	s.logger.Info().Int("pages", len(pages)).Msg("Starting audit")

	snapshots := make([]models.PageSnapshot, 0, len(pages))
	captured := make([]string, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := s.source.Capture(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("page", page.ID).Str("url", page.URL).Msg("Skipping page that could not be captured")
			continue
		}

		if err := s.store.Record(page.ID, snapshot.Observations); err != nil {
			return nil, common.WrapError(err, common.ErrorTypeCapture, "invalid_observation", "page source returned an invalid observation").
				WithContext("page", page.ID)
		}

		snapshots = append(snapshots, *snapshot)
		captured = append(captured, page.ID)
		if s.observer != nil {
			s.observer.PageCaptured(page, len(snapshot.Observations))
		}
	}

	if len(snapshots) == 0 {
		return nil, common.NewCaptureError("no_pages", "no page could be captured").
			WithContext("requested", len(pages))
	}

	all := make([]interfaces.Check, 0, len(s.checks)+1)
	all = append(all, s.analyzer)
	all = append(all, s.checks...)

	report, err := s.runner.RunAll(ctx, all, snapshots)
	if err != nil {
		return nil, err
	}
	report.Pages = captured

	s.logger.Info().
		Int("pages", len(captured)).
		Int("checks", len(report.Checks)).
		Int("failed", report.FailedCount()).
		Str("overall_score", formatScore(report.OverallScore)).
		Dur("duration", time.Since(start)).
		Msg("Audit completed")

	if s.observer != nil {
		s.observer.AuditFinished(report)
	}
	return report, nil
}

// RecordPage adds one page's observations for incremental analysis
func (s *auditService) RecordPage(pageID string, observations []models.ElementObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Record(pageID, observations)
}

// Analyze runs the cross-page analysis over every page recorded so far
func (s *auditService) Analyze() models.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.Analyze()
}

// CheckCurrentPage records one page and runs the single-page variant
func (s *auditService) CheckCurrentPage(pageID string, observations []models.ElementObservation) (models.CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.CheckCurrentPage(pageID, observations)
}

// Reset discards everything recorded so far
func (s *auditService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
}
