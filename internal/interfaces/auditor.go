package interfaces

import (
	"context"

	"rtl-layout-auditor/internal/models"
)

// PageSource renders a page and captures its structural elements.
// Implementations must only return observations with positive size.
type PageSource interface {
	Capture(ctx context.Context, page models.PageTarget) (*models.PageSnapshot, error)
	Close() error
}

// Check is one heuristic producing a CheckResult from captured pages
type Check interface {
	Name() string
	Run(ctx context.Context, pages []models.PageSnapshot) (models.CheckResult, error)
}

// Auditor runs audits over a set of pages
type Auditor interface {
	RunAudit(ctx context.Context, pages []models.PageTarget) (*models.AggregateReport, error)
	RecordPage(pageID string, observations []models.ElementObservation) error
	Analyze() models.CheckResult
	CheckCurrentPage(pageID string, observations []models.ElementObservation) (models.CheckResult, error)
	Reset()
}

// AuditObserver receives progress notifications during an audit
type AuditObserver interface {
	PageCaptured(page models.PageTarget, observations int)
	CheckStarted(name string)
	CheckFinished(result models.CheckResult)
	AuditFinished(report *models.AggregateReport)
}

// ReportStorage archives audit reports for later viewing
type ReportStorage interface {
	SaveReport(report *models.AggregateReport) error
	LoadReport(id string) (*models.AggregateReport, error)
	ListReports() ([]models.ReportSummary, error)
	ClearReports() error
	PruneReports(retentionDays int) (int, error)
	Close() error
}

type WebService interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	SetPages(pages []models.PageTarget)
}
