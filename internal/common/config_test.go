package common

import (
	"os"
	"path/filepath"
	"testing"

	"rtl-layout-auditor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auditor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
[auditor]
port = 9100

[browser]
driver = "playwright"
viewport_width = 390
viewport_height = 844
settle_ms = 250

[[pages]]
id = "home"
url = "http://localhost:3000/"

[[pages]]
id = "settings"
url = "http://localhost:3000/settings"

[roles]
back-button = ".nav-back"
fab = ".fab"

[storage]
database_path = "/tmp/rtl/reports.db"
retention_days = 7
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Auditor.Port)
	assert.Equal(t, DriverPlaywright, cfg.Browser.Driver)
	assert.Equal(t, 390, cfg.Browser.ViewportWidth)
	assert.Equal(t, 250, cfg.Browser.SettleMillis)
	assert.Equal(t, 30, cfg.Browser.TimeoutSeconds)
	assert.Equal(t, []models.PageTarget{
		{ID: "home", URL: "http://localhost:3000/"},
		{ID: "settings", URL: "http://localhost:3000/settings"},
	}, cfg.Pages)
	assert.Equal(t, 7, cfg.Storage.RetentionDays)
	assert.Equal(t, "info", cfg.Logging.Level)

	selectors := cfg.RoleSelectors()
	assert.Equal(t, ".nav-back", selectors[models.RoleBackButton])
	assert.Equal(t, ".fab", selectors[models.Role("fab")])
	assert.NotEmpty(t, selectors[models.RoleHeader])
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[auditor]
port = 9100
`)
	t.Setenv("AUDITOR_PORT", "9200")
	t.Setenv("AUDITOR_BROWSER_URL", "ws://chrome:9222")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_OUTPUT", "console")
	t.Setenv("DATABASE_PATH", "/data/reports.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Auditor.Port)
	assert.Equal(t, "ws://chrome:9222", cfg.Browser.RemoteURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "/data/reports.db", cfg.Storage.DatabasePath)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeConfiguration))

	_, err = LoadConfig(writeConfig(t, "[auditor\nport = "))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeConfiguration))

	_, err = LoadConfig(writeConfig(t, "[browser]\ndriver = \"selenium\"\n"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeValidation))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{name: "missing database path", mutate: func(c *Config) { c.Storage.DatabasePath = "" }, code: "database_path"},
		{name: "zero viewport", mutate: func(c *Config) { c.Browser.ViewportWidth = 0 }, code: "viewport"},
		{name: "page without url", mutate: func(c *Config) { c.Pages = []models.PageTarget{{ID: "home"}} }, code: "page"},
		{name: "duplicate page", mutate: func(c *Config) {
			c.Pages = []models.PageTarget{{ID: "home", URL: "a"}, {ID: "home", URL: "b"}}
		}, code: "page"},
		{name: "empty selector", mutate: func(c *Config) { c.Roles = map[string]string{"header": " "} }, code: "roles"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, code: "log_level"},
		{name: "log output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, code: "log_output"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, code: "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var ae *AuditorError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, ErrorTypeValidation, ae.Type)
			assert.Equal(t, tt.code, ae.Code)
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auditor.Port = 0
	cfg.Browser.Driver = ""
	cfg.Browser.TimeoutSeconds = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8090, cfg.Auditor.Port)
	assert.Equal(t, DriverChromedp, cfg.Browser.Driver)
	assert.Equal(t, 30, cfg.Browser.TimeoutSeconds)
	assert.False(t, cfg.IsProduction())
}
