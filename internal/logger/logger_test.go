package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "solia")

	if err := Init(Config{DataDir: dataDir}); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(func() { Logger = nil })

	if _, err := os.Stat(filepath.Dir(LogFile(dataDir))); os.IsNotExist(err) {
		t.Errorf("log directory was not created: %s", filepath.Dir(LogFile(dataDir)))
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("expected warn level, got %v", Logger.GetLevel())
	}

	Warn("test warning", "key", "value")

	data, err := os.ReadFile(LogFile(dataDir))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "test warning") {
		t.Errorf("warning not written to log file: %q", data)
	}
}

func TestInitDebugMode(t *testing.T) {
	dataDir := t.TempDir()

	if err := Init(Config{Debug: true, DataDir: dataDir}); err != nil {
		t.Fatalf("init logger in debug mode: %v", err)
	}
	t.Cleanup(func() { Logger = nil })

	if Logger.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", Logger.GetLevel())
	}
	Debug("test debug message")
	Info("test info message")
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// Must not panic.
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")

	if Default() == nil {
		t.Fatal("Default should never return nil")
	}
}

func TestNewWritesPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.DebugLevel)
	l.Debug("started", "entry", 7)

	out := buf.String()
	if !strings.Contains(out, "solia") || !strings.Contains(out, "entry=7") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if l.GetLevel() != log.FatalLevel {
		t.Fatalf("expected fatal level, got %v", l.GetLevel())
	}
}
