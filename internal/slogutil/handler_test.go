package slogutil

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Test message", "key", "value", "count", 42)

	output := buf.String()

	// Check format: TIMESTAMP [level] Message | key=value
	if !strings.Contains(output, "[info]") {
		t.Errorf("expected [info] in output, got: %s", output)
	}
	if !strings.Contains(output, "Test message") {
		t.Errorf("expected 'Test message' in output, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected 'key=value' in output, got: %s", output)
	}
	if !strings.Contains(output, "count=42") {
		t.Errorf("expected 'count=42' in output, got: %s", output)
	}
	if !strings.Contains(output, " | ") {
		t.Errorf("expected ' | ' separator in output, got: %s", output)
	}
}

func TestHandler_Levels(t *testing.T) {
	tests := []struct {
		level    slog.Level
		logFunc  func(*slog.Logger)
		expected string
	}{
		{slog.LevelDebug, func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{slog.LevelInfo, func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{slog.LevelWarn, func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{slog.LevelError, func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug) // Enable all levels
			tt.logFunc(logger)

			output := buf.String()
			if !strings.Contains(output, tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, output)
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be included")
	}
	if !strings.Contains(output, "error message") {
		t.Error("error message should be included")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := LevelFromString(tt.input)
			if got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, slog.Level(100)}, // silent
		{5, true, slog.Level(100)}, // quiet overrides verbosity
	}

	for _, tt := range tests {
		got := LevelFromVerbosity(tt.verbosity, tt.quiet)
		if got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v",
				tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()

	// Should not panic
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	// buf1 should have both (info level)
	if !strings.Contains(buf1.String(), "info message") {
		t.Error("buf1 should contain info message")
	}
	if !strings.Contains(buf1.String(), "warn message") {
		t.Error("buf1 should contain warn message")
	}

	// buf2 should only have warn (warn level)
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

func TestHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("runId", "abc").WithGroup("strip")

	logger.Info("Removing export", "name", "g")

	output := buf.String()
	if !strings.Contains(output, "runId=abc") {
		t.Errorf("expected pre-set attr in output, got: %s", output)
	}
	if !strings.Contains(output, "strip.name=g") {
		t.Errorf("expected grouped attr key in output, got: %s", output)
	}
}

func TestHandler_WithColorKeepsLevelText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, slog.LevelInfo, "", true)

	logger.Warn("careful")

	if !strings.Contains(buf.String(), "warn]") {
		t.Errorf("expected level tag in output, got: %s", buf.String())
	}
}

func TestConsoleLogger_RelativePathsWithoutTimestamp(t *testing.T) {
	var buf bytes.Buffer
	dir := filepath.Join(t.TempDir(), "proj")
	logger := NewConsoleLogger(&buf, slog.LevelInfo, dir, false)

	logger.Info("Removing export", "path", filepath.Join(dir, "src", "a.ts"))
	logger.Info("Outside", "path", filepath.Join(t.TempDir(), "b.ts"))
	logger.Info("Relative", "path", "src/c.ts")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got: %q", buf.String())
	}
	if want := "[info] Removing export | path=./src/a.ts"; lines[0] != want {
		t.Errorf("got %q, want %q", lines[0], want)
	}
	if strings.Contains(lines[1], "path=./") {
		t.Errorf("paths outside the base dir stay absolute, got: %s", lines[1])
	}
	if want := "[info] Relative | path=src/c.ts"; lines[2] != want {
		t.Errorf("got %q, want %q", lines[2], want)
	}
}

func TestFileLogger_KeepsTimestampAndAbsolutePaths(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	abs := filepath.Join(t.TempDir(), "a.ts")
	logger.Info("Saved", "path", abs)

	out := buf.String()
	if strings.HasPrefix(out, "[info]") {
		t.Errorf("expected a timestamp prefix, got: %s", out)
	}
	if !strings.Contains(out, "path="+abs) {
		t.Errorf("expected absolute path, got: %s", out)
	}
}
