package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNewLoggerWithFileWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.log")
	logger, err := NewLoggerWithFile("info", FileConfig{Path: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	logger.Info("ballot stored")
	logger.Debug("filtered out")
	_ = logger.Sync()

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(contents), "ballot stored") {
		t.Fatalf("expected entry in log file, got %q", contents)
	}
	if strings.Contains(string(contents), "filtered out") {
		t.Fatalf("expected debug entry to be filtered")
	}
}
