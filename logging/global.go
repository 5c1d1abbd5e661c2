// Package logging wraps slog with a console handler and a weekly rotating
// JSON file, and exposes package-level helpers used across the service.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/giygas/medishortage-api/config"
)

// Options configures the global logger
type Options struct {
	LogDir         string
	Env            config.Environment
	Level          string // LOG_LEVEL; empty picks the environment default
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool // Console output under ENV=test
	Console        io.Writer
}

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var (
	DefaultLoggingService *LoggingService
	serviceMu             sync.Mutex
	fallbackLogger        = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
)

// InitLogger initializes the global logger with default retention and size
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{LogDir: logDir, Env: config.EnvDevelopment})
}

// InitLoggerWithRetentionAndSize initializes the global logger from the config values
func InitLoggerWithRetentionAndSize(logDir string, env config.Environment, level string, retentionWeeks int, maxFileSize int64) {
	InitLoggerWithOptions(Options{
		LogDir:         logDir,
		Env:            env,
		Level:          level,
		RetentionWeeks: retentionWeeks,
		MaxFileSize:    maxFileSize,
		Verbose:        os.Getenv("VERBOSE_TESTS") != "",
	})
}

// InitLoggerWithOptions replaces the global logger, closing the previous one
func InitLoggerWithOptions(opts Options) {
	service := newLoggingService(opts)

	serviceMu.Lock()
	previous := DefaultLoggingService
	DefaultLoggingService = service
	serviceMu.Unlock()

	slog.SetDefault(service.Logger)
	if previous != nil && previous.rotating != nil {
		_ = previous.rotating.Close()
	}
}

func newLoggingService(opts Options) *LoggingService {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.LogDir == "" {
		return &LoggingService{Logger: slog.New(consoleHandler)}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	rotating := NewRotatingLoggerWithSizeLimit(opts.LogDir, opts.RetentionWeeks, maxSize)
	if err := rotating.open(); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize log file, logging to console only", "error", err)
		return &LoggingService{Logger: logger}
	}
	rotating.startCleanup()

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: GetFileLogLevel()})

	return &LoggingService{
		Logger:   slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}),
		rotating: rotating,
	}
}

// Close flushes and closes the log file of the global logger
func Close() error {
	serviceMu.Lock()
	service := DefaultLoggingService
	DefaultLoggingService = nil
	serviceMu.Unlock()

	if service == nil || service.rotating == nil {
		return nil
	}
	return service.rotating.Close()
}

// ResetForTest installs a fresh global logger for the duration of the test
func ResetForTest(t testing.TB, logDir string, env config.Environment, level string, retentionWeeks int, maxFileSize int64) {
	t.Helper()
	InitLoggerWithRetentionAndSize(logDir, env, level, retentionWeeks, maxFileSize)
	t.Cleanup(func() { _ = Close() })
}

func current() *slog.Logger {
	serviceMu.Lock()
	defer serviceMu.Unlock()
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallbackLogger
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, or a stderr logger before initialization
func Logger() *slog.Logger {
	return current()
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}
