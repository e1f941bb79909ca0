package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"
	"rtl-layout-auditor/internal/scoring"
	"rtl-layout-auditor/internal/services"

	"github.com/ternarybob/arbor"
)

const appName = "rtl-layout-auditor"

// pageFlags collects repeated -page id=url flags
type pageFlags []models.PageTarget

func (p *pageFlags) String() string {
	parts := make([]string, 0, len(*p))
	for _, page := range *p {
		parts = append(parts, page.ID+"="+page.URL)
	}
	return strings.Join(parts, ",")
}

func (p *pageFlags) Set(value string) error {
	page, err := parsePage(value)
	if err != nil {
		return err
	}
	*p = append(*p, page)
	return nil
}

func parsePage(value string) (models.PageTarget, error) {
	id, url, ok := strings.Cut(value, "=")
	id = strings.TrimSpace(id)
	url = strings.TrimSpace(url)
	if !ok || id == "" || url == "" {
		return models.PageTarget{}, fmt.Errorf("expected id=url, got %q", value)
	}
	return models.PageTarget{ID: id, URL: url}, nil
}

func main() {
	var pages pageFlags

	var (
		configPath     = flag.String("config", "", "Path to configuration file")
		mode           = flag.String("mode", "dev", "Environment mode: 'dev', 'development', 'prod', or 'production'")
		quiet          = flag.Bool("quiet", false, "Suppress banner output")
		version        = flag.Bool("version", false, "Show version information")
		help           = flag.Bool("help", false, "Show help message")
		validateConfig = flag.Bool("validate", false, "Validate configuration file and exit")
		serve          = flag.Bool("serve", false, "Run the HTTP server instead of a single audit")
		jsonOutput     = flag.Bool("json", false, "Print the audit report as JSON")
	)
	flag.Var(&pages, "page", "Page to audit as id=url (repeatable, overrides [[pages]])")
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s (build: %s)\n", appName, common.GetVersion(), common.GetBuild())
		os.Exit(0)
	}

	if *help {
		showHelp()
		os.Exit(0)
	}

	environment := parseMode(*mode)

	// Priority: defaults -> TOML -> environment
	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Auditor.Environment = environment
	if len(pages) > 0 {
		cfg.Pages = pages
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid pages: %v\n", err)
			os.Exit(1)
		}
	}

	if *validateConfig {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	if err := common.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := common.GetLogger()

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("environment", environment).
		Msg("Starting RTL Layout Auditor")

	logger.Info().
		Str("config_path", *configPath).
		Str("driver", cfg.Browser.Driver).
		Int("pages", len(cfg.Pages)).
		Msg("Configuration loaded")

	runMode := "Audit"
	if *serve {
		runMode = "Server"
	}
	if !*quiet && !*jsonOutput {
		common.PrintBanner(cfg, runMode, common.GetLogFilePath())
	}

	logger.Info().Msg("Initializing services...")

	storage, err := services.NewReportStorage(&cfg.Storage)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer storage.Close()

	source, err := services.NewPageSource(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start browser")
		storage.Close()
		os.Exit(1)
	}
	defer source.Close()

	logger.Info().Msg("Services initialized successfully")

	exitCode := 0
	if *serve {
		runServerMode(cfg, common.ResolveConfigPath(*configPath), len(pages) > 0, source, storage, logger)
	} else {
		exitCode = runAuditMode(cfg, source, storage, logger, *jsonOutput, *quiet)
	}

	logger.Info().Msg("RTL Layout Auditor shutdown complete")
	if exitCode != 0 {
		source.Close()
		storage.Close()
		os.Exit(exitCode)
	}
}

func runAuditMode(cfg *common.Config, source interfaces.PageSource, storage interfaces.ReportStorage, logger arbor.ILogger, jsonOutput, quiet bool) int {
	if len(cfg.Pages) == 0 {
		common.PrintError("No pages to audit: add [[pages]] to the config or pass -page id=url")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var observer interfaces.AuditObserver
	if !jsonOutput && !quiet {
		observer = &consoleObserver{}
	}

	auditor := services.NewAuditor(source, logger, observer)
	report, err := auditor.RunAudit(ctx, cfg.Pages)
	if err != nil {
		logger.Error().Err(err).Msg("Audit failed")
		common.PrintError(fmt.Sprintf("Audit failed: %v", err))
		return 1
	}

	if err := storage.SaveReport(report); err != nil {
		logger.Warn().Err(err).Msg("Failed to archive report")
	} else if _, err := storage.PruneReports(cfg.Storage.RetentionDays); err != nil {
		logger.Warn().Err(err).Msg("Failed to prune old reports")
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			logger.Error().Err(err).Msg("Failed to encode report")
			return 1
		}
		return 0
	}

	fmt.Print(scoring.FormatReport(report))
	return 0
}

func runServerMode(cfg *common.Config, configPath string, pinnedPages bool, source interfaces.PageSource, storage interfaces.ReportStorage, logger arbor.ILogger) {
	logger.Info().Msg("Starting in server mode")

	webServer, err := services.NewWebServer(cfg, source, storage, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create web server")
		return
	}

	ctx := context.Background()
	if err := webServer.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to start web server")
		return
	}

	logger.Info().
		Int("port", cfg.Auditor.Port).
		Msg("Web server started successfully")

	// Pages given with -page win over the config file
	if configPath != "" && !pinnedPages {
		watcher, err := common.NewConfigWatcher(configPath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Config reload disabled")
		} else {
			watcher.OnReload(func(reloaded *common.Config) {
				webServer.SetPages(reloaded.Pages)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Msg("Server running - press Ctrl+C to stop")

	<-sigChan
	logger.Info().Msg("Shutdown signal received")

	if err := webServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping web server")
	}

	logger.Info().Msg("Server mode shutdown complete")
}

// consoleObserver prints audit progress for interactive runs
type consoleObserver struct{}

func (consoleObserver) PageCaptured(page models.PageTarget, observations int) {
	common.PrintSuccess(fmt.Sprintf("captured %s (%d elements)", page.ID, observations))
}

func (consoleObserver) CheckStarted(name string) {}

func (consoleObserver) CheckFinished(result models.CheckResult) {
	if result.Passed {
		common.PrintSuccess(fmt.Sprintf("%s %.1f", result.Name, result.Score))
		return
	}
	common.PrintWarning(fmt.Sprintf("%s %.1f (%d issues)", result.Name, result.Score, len(result.Issues)))
}

func (consoleObserver) AuditFinished(report *models.AggregateReport) {
	fmt.Println()
}

func parseMode(mode string) string {
	mode = strings.ToLower(mode)
	switch mode {
	case "prod", "production":
		return "production"
	default:
		return "development"
	}
}

func showHelp() {
	fmt.Printf("%s v%s - Mobile RTL layout and visual consistency auditor\n\n", appName, common.GetVersion())
	fmt.Println("Usage:")
	fmt.Printf("  %s [flags]\n\n", os.Args[0])
	fmt.Println("Flags:")
	fmt.Println("  -mode string        Environment mode: 'dev', 'development', 'prod', or 'production' (default \"dev\")")
	fmt.Println("  -config string      Configuration file path")
	fmt.Println("  -page id=url        Page to audit (repeatable, overrides [[pages]])")
	fmt.Println("  -json               Print the report as JSON")
	fmt.Println("  -serve              Run the HTTP server")
	fmt.Println("  -quiet              Suppress banner output")
	fmt.Println("  -version            Show version information")
	fmt.Println("  -help               Show help message")
	fmt.Println("  -validate           Validate configuration file and exit")
	fmt.Println("\nExamples:")
	fmt.Printf("  %s                                              # Audit the configured pages\n", os.Args[0])
	fmt.Printf("  %s -page home=http://localhost:3000/ -page settings=http://localhost:3000/settings\n", os.Args[0])
	fmt.Printf("  %s -json > report.json                          # Machine-readable report\n", os.Args[0])
	fmt.Printf("  %s -serve -mode prod                            # Run the audit server\n", os.Args[0])
}
