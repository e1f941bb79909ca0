package services

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/handlers"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/middleware"
	"rtl-layout-auditor/internal/models"

	"github.com/ternarybob/arbor"
)

// webServer exposes audits, the report archive and live progress over HTTP
type webServer struct {
	config      *common.Config
	server      *http.Server
	logger      arbor.ILogger
	apiHandlers *handlers.APIHandlers
	wsHub       *handlers.WebSocketHub
	running     atomic.Bool
}

// NewWebServer creates a new web server instance. Audits triggered over HTTP
// stream their progress to websocket clients.
func NewWebServer(cfg *common.Config, source interfaces.PageSource, storage interfaces.ReportStorage, logger arbor.ILogger) (interfaces.WebService, error) {
	// Hub first, the auditor reports progress to it
	wsHub := handlers.NewWebSocketHub(logger)

	auditor := NewAuditor(source, logger, wsHub)
	apiHandlers := handlers.NewAPIHandlers(cfg, auditor, storage, logger)

	ws := &webServer{
		config:      cfg,
		logger:      logger,
		apiHandlers: apiHandlers,
		wsHub:       wsHub,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Auditor.Port),
			Handler:           NewRouter(apiHandlers, wsHub, cfg.Auditor.AllowedOrigins, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	return ws, nil
}

// NewRouter registers every endpoint with its middleware chain
func NewRouter(apiHandlers *handlers.APIHandlers, wsHub *handlers.WebSocketHub, allowedOrigins []string, logger arbor.ILogger) http.Handler {
	mux := http.NewServeMux()

	logMiddleware := middleware.Logging(logger)
	corsMiddleware := middleware.CORS(allowedOrigins)

	mux.HandleFunc("/health", logMiddleware(corsMiddleware(apiHandlers.HealthHandler)))
	mux.HandleFunc("/version", logMiddleware(corsMiddleware(apiHandlers.VersionHandler)))
	mux.HandleFunc("/config", logMiddleware(corsMiddleware(apiHandlers.ConfigHandler)))
	mux.HandleFunc("/audit", logMiddleware(corsMiddleware(apiHandlers.AuditHandler)))
	mux.HandleFunc("/reports", logMiddleware(corsMiddleware(apiHandlers.ReportsHandler)))
	mux.HandleFunc("/reports/get", logMiddleware(corsMiddleware(apiHandlers.ReportHandler)))
	mux.HandleFunc("/check-page", logMiddleware(corsMiddleware(apiHandlers.CheckPageHandler)))
	mux.HandleFunc("/analyze", logMiddleware(corsMiddleware(apiHandlers.AnalyzeHandler)))
	mux.HandleFunc("/reset", logMiddleware(corsMiddleware(apiHandlers.ResetHandler)))

	mux.HandleFunc("/ws", corsMiddleware(wsHub.WebSocketHandler))

	return mux
}

// Start starts the web server
func (ws *webServer) Start(ctx context.Context) error {
	ws.running.Store(true)

	go func() {
		ws.logger.Info().Int("port", ws.config.Auditor.Port).Msg("Starting web server")
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error().Err(err).Msg("Web server error")
			ws.running.Store(false)
		}
	}()
	return nil
}

// Stop stops the web server
func (ws *webServer) Stop() error {
	ws.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws.logger.Info().Msg("Shutting down web server")
	ws.wsHub.Close()
	return ws.server.Shutdown(ctx)
}

// IsRunning returns true if the web server is running
func (ws *webServer) IsRunning() bool {
	return ws.running.Load()
}

// SetPages replaces the pages audited by a bare POST /audit
func (ws *webServer) SetPages(pages []models.PageTarget) {
	ws.apiHandlers.SetPages(pages)
	ws.logger.Info().Int("pages", len(pages)).Msg("Default audit pages updated")
}
