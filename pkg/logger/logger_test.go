package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/watcher-aquarium/pkg/types"
)

func TestInitialize_FileSink(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "nested", "aquarium.log")

	err := Initialize(types.LoggingConfig{Level: "info", File: logFile}, false)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer Close()

	Info("file sink smoke test")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "file sink smoke test") {
		t.Errorf("log file missing expected line, got: %s", data)
	}
}

func TestInitialize_InvalidLevel(t *testing.T) {
	err := Initialize(types.LoggingConfig{Level: "shouty", File: filepath.Join(t.TempDir(), "a.log")}, false)
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestInitialize_DefaultsApplied(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "defaults.log")

	// Empty level must fall back to the default rather than erroring
	if err := Initialize(types.LoggingConfig{File: logFile}, false); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer Close()

	if GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level default, got %v", GetLevel())
	}
}

func TestInitialize_Reinitialize(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	if err := Initialize(types.LoggingConfig{File: first}, false); err != nil {
		t.Fatalf("first Initialize failed: %v", err)
	}
	if err := Initialize(types.LoggingConfig{Level: "debug", File: second}, false); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	defer Close()

	if GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level after reinitialize, got %v", GetLevel())
	}

	Debug("after reinitialize")
	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("second log file not created: %v", err)
	}
	if !strings.Contains(string(data), "after reinitialize") {
		t.Errorf("second log file missing expected line, got: %s", data)
	}
}

func TestClose_Idempotent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "close.log")
	if err := Initialize(types.LoggingConfig{File: logFile}, false); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("second Close should be a no-op, got: %v", err)
	}
}
