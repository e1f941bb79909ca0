package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	logFileName   = "rtl-layout-auditor.log"
	logTimeFormat = "15:04:05"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	logger arbor.ILogger
	mu     sync.RWMutex
)

// GetLogger returns the process logger, creating a default one on first use
func GetLogger() arbor.ILogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = initDefaultLogger()
	}
	return logger
}

// GetLogFilePath returns the file the audit log is written to
func GetLogFilePath() string {
	mu.RLock()
	l := logger
	mu.RUnlock()

	if l != nil {
		if path := l.GetLogFilePath(); path != "" {
			return path
		}
	}
	return filepath.Join(logDirectory(DefaultLoggingConfig()), logFileName)
}

// InitLogger builds the process logger from [logging]. Later calls are no-ops.
func InitLogger(config *LoggingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}

	l, err := createLogger(config)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func initDefaultLogger() arbor.ILogger {
	l, err := createLogger(DefaultLoggingConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize default logger: %v\n", err)
		return arbor.NewLogger()
	}
	return l
}

// logDirectory is [logging] dir, or logs/ next to the executable
func logDirectory(config *LoggingConfig) string {
	if config.Dir != "" {
		return config.Dir
	}
	execPath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(execPath), "logs")
}

func writesFile(output string) bool {
	return output == "both" || output == "file" || output == ""
}

func writesConsole(output string) bool {
	return output == "both" || output == "console" || output == ""
}

func createLogger(config *LoggingConfig) (arbor.ILogger, error) {
	// json is for log shippers, text for people reading audit runs
	textOutput := config.Format != LogFormatJSON

	l := arbor.NewLogger()

	if writesFile(config.Output) {
		dir := logDirectory(config)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		l = l.WithFileWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeFile,
			FileName:   filepath.Join(dir, logFileName),
			TimeFormat: logTimeFormat,
			MaxSize:    int64(config.MaxSize) * 1024 * 1024,
			MaxBackups: config.MaxBackups,
			TextOutput: textOutput,
		})
	}

	if writesConsole(config.Output) {
		l = l.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: logTimeFormat,
			TextOutput: textOutput,
		})
	}

	l = l.WithLevelFromString(config.Level)

	l.Debug().
		Str("level", config.Level).
		Str("format", config.Format).
		Str("output", config.Output).
		Msg("Audit logger initialized")

	return l, nil
}

func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:      "info",
		Format:     LogFormatText,
		Output:     "both",
		MaxSize:    100,
		MaxBackups: 3,
	}
}
