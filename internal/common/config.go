package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rtl-layout-auditor/internal/models"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Auditor AuditorConfig       `toml:"auditor"`
	Browser BrowserConfig       `toml:"browser"`
	Pages   []models.PageTarget `toml:"pages"`
	Roles   map[string]string   `toml:"roles"`
	Storage StorageConfig       `toml:"storage"`
	Logging LoggingConfig       `toml:"logging"`
}

type AuditorConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	Port        int    `toml:"port"`

	// AllowedOrigins limits cross-origin dashboards; empty allows any
	AllowedOrigins []string `toml:"allowed_origins"`
}

type BrowserConfig struct {
	Driver         string `toml:"driver"`
	RemoteURL      string `toml:"remote_url"`
	ExecPath       string `toml:"exec_path"`
	Headless       bool   `toml:"headless"`
	ViewportWidth  int    `toml:"viewport_width"`
	ViewportHeight int    `toml:"viewport_height"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SettleMillis   int    `toml:"settle_ms"`
	Stealth        bool   `toml:"stealth"`
}

type StorageConfig struct {
	DatabasePath  string `toml:"database_path"`
	RetentionDays int    `toml:"retention_days"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Output     string `toml:"output"`
	Dir        string `toml:"dir"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

func DefaultConfig() *Config {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)
	execName := filepath.Base(execPath)
	execName = execName[:len(execName)-len(filepath.Ext(execName))]

	defaultDBPath := filepath.Join(execDir, "data", execName+".db")

	return &Config{
		Auditor: AuditorConfig{
			Name:        execName,
			Environment: "development",
			Port:        8090,
		},
		Browser: BrowserConfig{
			Driver:         DriverChromedp,
			Headless:       true,
			ViewportWidth:  360,
			ViewportHeight: 740,
			TimeoutSeconds: 30,
			SettleMillis:   500,
		},
		Roles: map[string]string{},
		Storage: StorageConfig{
			DatabasePath:  defaultDBPath,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     LogFormatText,
			Output:     "both",
			MaxSize:    100,
			MaxBackups: 3,
		},
	}
}

// ResolveConfigPath returns configFile, or the first config file found next to
// the executable or in the working directory. Empty means defaults only.
func ResolveConfigPath(configFile string) string {
	if configFile != "" {
		return configFile
	}

	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)
	execName := filepath.Base(execPath)
	execName = execName[:len(execName)-len(filepath.Ext(execName))]

	possiblePaths := []string{
		filepath.Join(execDir, execName+".toml"),
		filepath.Join(execDir, "config.toml"),
		"config.toml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()
	configFile = ResolveConfigPath(configFile)

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, NewConfigurationError("read_failed", "failed to read config file").
				WithCause(err).
				WithContext("path", configFile)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, NewConfigurationError("parse_failed", "failed to parse config file").
				WithCause(err).
				WithContext("path", configFile)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}
	if logOutput := os.Getenv("LOG_OUTPUT"); logOutput != "" {
		config.Logging.Output = logOutput
	}

	if browserURL := os.Getenv("AUDITOR_BROWSER_URL"); browserURL != "" {
		config.Browser.RemoteURL = browserURL
	}

	if port := os.Getenv("AUDITOR_PORT"); port != "" {
		if portNum, err := strconv.Atoi(port); err == nil {
			config.Auditor.Port = portNum
		}
	}
}

func (c *Config) Validate() error {
	if c.Storage.DatabasePath == "" {
		return NewValidationError("database_path", "storage database_path is required")
	}

	if c.Auditor.Port <= 0 {
		c.Auditor.Port = 8090
	}

	switch c.Browser.Driver {
	case DriverChromedp, DriverPlaywright, DriverRod:
	case "":
		c.Browser.Driver = DriverChromedp
	default:
		return NewValidationError("browser_driver", fmt.Sprintf("unsupported browser driver: %s", c.Browser.Driver))
	}

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return NewValidationError("viewport", "viewport_width and viewport_height must be positive")
	}
	if c.Browser.TimeoutSeconds <= 0 {
		c.Browser.TimeoutSeconds = 30
	}

	seen := make(map[string]bool)
	for i, page := range c.Pages {
		if page.ID == "" || page.URL == "" {
			return NewValidationError("page", fmt.Sprintf("page %d requires both id and url", i))
		}
		if seen[page.ID] {
			return NewValidationError("page", fmt.Sprintf("duplicate page id: %s", page.ID))
		}
		seen[page.ID] = true
	}

	for role, selector := range c.Roles {
		if strings.TrimSpace(selector) == "" {
			return NewValidationError("roles", fmt.Sprintf("empty selector for role %s", role))
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return NewValidationError("log_level", fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	case "":
		c.Logging.Format = LogFormatText
	default:
		return NewValidationError("log_format", fmt.Sprintf("invalid log format: %s", c.Logging.Format))
	}

	validOutputs := []string{"console", "file", "both"}
	validOutput := false
	for _, output := range validOutputs {
		if c.Logging.Output == output {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return NewValidationError("log_output", fmt.Sprintf("invalid log output: %s", c.Logging.Output))
	}

	return nil
}

// RoleSelectors returns the CSS selector for every tracked role, with
// configured overrides applied on top of the built-in defaults.
func (c *Config) RoleSelectors() map[models.Role]string {
	selectors := DefaultRoleSelectors()
	for role, selector := range c.Roles {
		selectors[models.Role(role)] = selector
	}
	return selectors
}

// DefaultRoleSelectors maps built-in roles to the markup that usually renders them
func DefaultRoleSelectors() map[models.Role]string {
	return map[models.Role]string{
		models.RoleBackButton:    `[data-role="back"], .back-button, .btn-back, button[aria-label*="back" i], a[aria-label*="back" i]`,
		models.RoleHeader:        `header, [role="banner"], .app-header, .navbar`,
		models.RoleTabBar:        `[role="tablist"], .tab-bar, .tabbar, nav.bottom-nav`,
		models.RolePrimaryButton: `.btn-primary, button.primary, [data-role="primary-action"], button[type="submit"]`,
		models.RolePageTitle:     `h1, .page-title, [data-role="page-title"]`,
	}
}

func (c *Config) IsProduction() bool {
	return c.Auditor.Environment == "production"
}
