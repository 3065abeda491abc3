// Package logging sets up zerolog for the runner and adapts it for the other packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// Config selects the log level and the sinks.
type Config struct {
	Level string
	// Dir receives the session log file. Empty disables file logging.
	Dir          string
	AppName      string
	SessionStart time.Time
	// GraylogAddress is a GELF UDP endpoint. Empty disables Graylog.
	GraylogAddress string
	// Console defaults to colored output on os.Stdout.
	Console io.Writer
}

// Manager owns the configured logger and its sinks.
type Manager struct {
	logger   zerolog.Logger
	filePath string
	file     *os.File
	graylog  *gelf.Writer
}

// ParseLevel converts a config level name into a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds a logger writing console format to the console and the session log file,
// and JSON to Graylog when configured.
func Setup(cfg Config) (*Manager, error) {
	m := &Manager{}

	// colors only on the terminal
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if cfg.Console != nil {
		console.Out = cfg.Console
		console.NoColor = true
	}
	writers := []io.Writer{console}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		m.filePath = LogFilePath(cfg.Dir, cfg.AppName, cfg.SessionStart)
		// keep the previous log of the same session name
		if _, err := os.Stat(m.filePath); err == nil {
			_ = os.Rename(m.filePath, m.filePath+".old")
		}
		file, err := os.OpenFile(m.filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		m.file = file
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	if cfg.GraylogAddress != "" {
		gw, err := gelf.NewWriter(cfg.GraylogAddress)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to create graylog writer: %w", err)
		}
		m.graylog = gw
		writers = append(writers, gw)
	}

	m.logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Str("app", cfg.AppName).Logger()

	m.logger.Info().Str("loglevel", m.logger.GetLevel().String()).Msg("Logging set up")
	return m, nil
}

// Logger returns the configured logger.
func (m *Manager) Logger() zerolog.Logger {
	return m.logger
}

// FilePath is the session log file, empty when file logging is disabled.
func (m *Manager) FilePath() string {
	return m.filePath
}

// Sampled returns a logger for per-tick messages: bursts of 5 per 10 seconds,
// then 1 in 100.
func (m *Manager) Sampled() zerolog.Logger {
	return m.logger.With().Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}

// Close flushes and closes the file and Graylog sinks.
func (m *Manager) Close() error {
	var firstErr error
	if m.graylog != nil {
		if err := m.graylog.Close(); err != nil {
			firstErr = err
		}
		m.graylog = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.file = nil
	}
	return firstErr
}
