package logging

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/giygas/medishortage-api/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		env         config.Environment
		logLevelStr string
		verbose     bool
		expected    slog.Level
	}{
		{"dev defaults to info", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"test quiet defaults to error", config.EnvTest, "", false, slog.LevelError},
		{"test verbose defaults to info", config.EnvTest, "", true, slog.LevelInfo},
		{"prod defaults to warn", config.EnvProduction, "", false, slog.LevelWarn},
		{"staging defaults to warn", config.EnvStaging, "", false, slog.LevelWarn},
		{"prod with debug override", config.EnvProduction, "debug", false, slog.LevelDebug},
		{"dev with error override", config.EnvDevelopment, "error", false, slog.LevelError},
		{"test with debug override (ignored)", config.EnvTest, "debug", false, slog.LevelError},
		{"test with debug override (ignored) verbose", config.EnvTest, "debug", true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetConsoleLogLevel(tt.env, tt.logLevelStr, tt.verbose)
			if got != tt.expected {
				t.Errorf("GetConsoleLogLevel(%v, %q, %v) = %v, want %v", tt.env, tt.logLevelStr, tt.verbose, got, tt.expected)
			}
		})
	}
}

func TestGetFileLogLevel(t *testing.T) {
	got := GetFileLogLevel()
	if got != slog.LevelDebug {
		t.Errorf("GetFileLogLevel() = %v, want %v", got, slog.LevelDebug)
	}
}

func TestInitLoggerWithOptionsConsoleLevel(t *testing.T) {
	var console strings.Builder
	InitLoggerWithOptions(Options{Env: config.EnvDevelopment, Level: "warn", Console: &console})
	t.Cleanup(func() { _ = Close() })

	Info("Catalog reload completed", "medicine_count", 8)
	Warn("Duplicate medicine names in catalog", "count", 1)

	logs := console.String()
	if strings.Contains(logs, "Catalog reload completed") {
		t.Errorf("info should be filtered at warn level, got: %s", logs)
	}
	if !strings.Contains(logs, "Duplicate medicine names in catalog") || !strings.Contains(logs, "count=1") {
		t.Errorf("expected the warning with its attributes, got: %s", logs)
	}
	if Logger() != DefaultLoggingService.Logger {
		t.Error("Logger() should return the installed logger")
	}
}

func TestResetForTestClosesOnCleanup(t *testing.T) {
	t.Run("installs", func(t *testing.T) {
		ResetForTest(t, t.TempDir(), config.EnvTest, "error", 1, 0)
		if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
			t.Fatal("expected a file backed logger while the test runs")
		}
	})

	if DefaultLoggingService != nil {
		t.Error("expected the logger to be closed once the test finished")
	}
	if Logger() != fallbackLogger {
		t.Error("expected the stderr fallback after Close")
	}
}
