package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfo(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info level to be enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be disabled by default")
	}
}

func TestNewUnknownLevelFallsBack(t *testing.T) {
	logger, err := New(Config{Level: "chatty"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected unknown level to fall back to info")
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger, err := New(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestNewWritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raffle.log")
	logger, err := New(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("ticket sold", zap.String("raffle_key", "abc"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "ticket sold") {
		t.Fatalf("expected log file to contain message, got %q", string(data))
	}
	if !strings.Contains(string(data), "raffle_key") {
		t.Fatalf("expected log file to contain field, got %q", string(data))
	}
}

func TestNewRejectsUnwritableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "raffle.log")
	if _, err := New(Config{File: path}); err == nil {
		t.Fatal("expected error for unwritable log file path")
	}
}
