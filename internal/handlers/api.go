package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/middleware"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

// APIHandlers contains all API endpoint handlers
type APIHandlers struct {
	config    *common.Config
	auditor   interfaces.Auditor
	storage   interfaces.ReportStorage
	logger    arbor.ILogger
	startTime time.Time

	// Default audit pages, replaced when the config file is reloaded
	pagesMu sync.RWMutex
	pages   []models.PageTarget
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Build     string    `json:"build"`
	Uptime    float64   `json:"uptime_seconds"`
	Services  struct {
		Database bool   `json:"database"`
		Browser  string `json:"browser"`
	} `json:"services"`
}

// VersionResponse represents server version information
type VersionResponse struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
}

// ConfigResponse represents the configuration display response
type ConfigResponse struct {
	Auditor *common.AuditorConfig `json:"auditor"`
	Browser *common.BrowserConfig `json:"browser"`
	Pages   []models.PageTarget   `json:"pages"`
	Storage *common.StorageConfig `json:"storage"`
	Logging *common.LoggingConfig `json:"logging"`
}

// AuditRequest is the optional body of POST /audit
type AuditRequest struct {
	Pages []models.PageTarget `json:"pages"`
}

// CheckPageRequest carries one page's observations for single-page analysis
type CheckPageRequest struct {
	Page         string                      `json:"page"`
	Observations []models.ElementObservation `json:"observations"`
}

// ReportsResponse represents report archive operation responses
type ReportsResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Count   int                    `json:"count"`
	Reports []models.ReportSummary `json:"reports,omitempty"`
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(config *common.Config, auditor interfaces.Auditor, storage interfaces.ReportStorage, logger arbor.ILogger) *APIHandlers {
	return &APIHandlers{
		config:    config,
		auditor:   auditor,
		storage:   storage,
		logger:    logger,
		startTime: time.Now(),
		pages:     config.Pages,
	}
}

// Pages returns the pages audited when a request names none
func (h *APIHandlers) Pages() []models.PageTarget {
	h.pagesMu.RLock()
	defer h.pagesMu.RUnlock()
	return h.pages
}

// SetPages replaces the default audit pages
func (h *APIHandlers) SetPages(pages []models.PageTarget) {
	h.pagesMu.Lock()
	defer h.pagesMu.Unlock()
	h.pages = pages
}

// HealthHandler returns system health status
func (h *APIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   common.GetVersion(),
		Build:     common.GetBuild(),
		Uptime:    time.Since(h.startTime).Seconds(),
	}

	_, err := h.storage.ListReports()
	health.Services.Database = err == nil
	health.Services.Browser = h.config.Browser.Driver

	if !health.Services.Database {
		health.Status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, health)
}

// VersionHandler returns version information
func (h *APIHandlers) VersionHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, VersionResponse{
		Version: common.GetVersion(),
		Build:   common.GetBuild(),
		Commit:  common.GetGitCommit(),
	})
}

// ConfigHandler returns system configuration
func (h *APIHandlers) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ConfigResponse{
		Auditor: &h.config.Auditor,
		Browser: &h.config.Browser,
		Pages:   h.Pages(),
		Storage: &h.config.Storage,
		Logging: &h.config.Logging,
	})
}

// AuditHandler runs a full audit, archives the report and returns it
func (h *APIHandlers) AuditHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn().Err(err).Msg("Failed to decode audit request")
		h.writeError(w, http.StatusBadRequest, "Invalid payload format")
		return
	}

	pages := req.Pages
	if len(pages) == 0 {
		pages = h.Pages()
	}
	if len(pages) == 0 {
		h.writeError(w, http.StatusBadRequest, "No pages to audit")
		return
	}
	for _, page := range pages {
		if page.ID == "" || page.URL == "" {
			h.writeError(w, http.StatusBadRequest, "Every page needs an id and a url")
			return
		}
	}

	h.logger.Info().Int("pages", len(pages)).Str("remote_addr", r.RemoteAddr).Msg("Audit requested")

	report, err := h.auditor.RunAudit(r.Context(), pages)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn().Err(err).Msg("Audit abandoned")
			h.writeError(w, http.StatusServiceUnavailable, "Audit abandoned")
		case common.IsErrorType(err, common.ErrorTypeCapture):
			h.logger.Error().Err(err).Msg("Audit failed to capture pages")
			h.writeError(w, http.StatusBadGateway, err.Error())
		default:
			h.logger.Error().Err(err).Msg("Audit failed")
			h.writeError(w, http.StatusInternalServerError, "Audit failed")
		}
		return
	}

	if err := h.storage.SaveReport(report); err != nil {
		h.logger.Error().Err(err).Msg("Failed to archive report")
	} else if removed, err := h.storage.PruneReports(h.config.Storage.RetentionDays); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to prune old reports")
	} else if removed > 0 {
		h.logger.Info().Int("removed", removed).Msg("Pruned old reports")
	}

	if report.ID != "" {
		w.Header().Set(middleware.ReportIDHeader, report.ID)
	}
	h.writeJSON(w, http.StatusOK, report)
}

// ReportsHandler lists or clears archived reports
func (h *APIHandlers) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListReports(w, r)
	case http.MethodDelete:
		h.handleClearReports(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandlers) handleListReports(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.storage.ListReports()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		h.writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	h.writeJSON(w, http.StatusOK, ReportsResponse{
		Success: true,
		Count:   len(summaries),
		Reports: summaries,
	})
}

func (h *APIHandlers) handleClearReports(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().Msg("Clearing all archived reports")

	if err := h.storage.ClearReports(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear reports")
		h.writeError(w, http.StatusInternalServerError, "Failed to clear reports")
		return
	}

	h.writeJSON(w, http.StatusOK, ReportsResponse{
		Success: true,
		Message: "All reports cleared",
	})
}

// ReportHandler returns one archived report by id
func (h *APIHandlers) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "Missing report id")
		return
	}

	report, err := h.storage.LoadReport(id)
	if err != nil {
		if common.IsErrorType(err, common.ErrorTypeStorage) {
			h.writeError(w, http.StatusNotFound, fmt.Sprintf("Report %s not found", id))
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to load report")
		h.writeError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	w.Header().Set(middleware.ReportIDHeader, id)
	h.writeJSON(w, http.StatusOK, report)
}

// CheckPageHandler records one page's observations and compares it against
// the pages recorded before it
func (h *APIHandlers) CheckPageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CheckPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode check-page request")
		h.writeError(w, http.StatusBadRequest, "Invalid payload format")
		return
	}
	if req.Page == "" {
		h.writeError(w, http.StatusBadRequest, "Missing page id")
		return
	}

	result, err := h.auditor.CheckCurrentPage(req.Page, req.Observations)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// AnalyzeHandler runs the cross-page analysis over everything recorded so far
func (h *APIHandlers) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, h.auditor.Analyze())
}

// ResetHandler clears recorded observations
func (h *APIHandlers) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.auditor.Reset()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *APIHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
