package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"comictag/internal/config"
	"comictag/internal/logging"
	"comictag/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "console"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "INFO hello") {
		t.Fatalf("expected console line, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "engine").Info("scored", logging.Int("candidates", 3))

	content, _ := os.ReadFile(logPath)
	line := string(content)
	if !strings.Contains(line, "engine: scored") || !strings.Contains(line, "candidates=3") {
		t.Fatalf("unexpected console line %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should render as prefix only, got %q", line)
	}
}

func TestAutoFormatUsesJSONForFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "auto.log")
	logger, err := logging.New(logging.Options{Format: "auto", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, _ := os.ReadFile(logPath)
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", content, err)
	}
	if payload["k"] != "v" || payload["level"] != "info" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-9")
	ctx = services.WithArchive(ctx, "/comics/a.cbz")
	logging.WithContext(ctx, logger).Info("contextual log")

	content, _ := os.ReadFile(logPath)
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldRunID] != "run-9" || payload[logging.FieldArchive] != "/comics/a.cbz" {
		t.Fatalf("missing context fields: %v", payload)
	}
}

func TestPruneLogsKeepsActiveAndRecent(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	active := filepath.Join(dir, "active.log")
	recent := filepath.Join(dir, "recent.log")
	for _, path := range []string{old, active, recent} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, active} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.PruneLogs(logging.NewNop(), dir, "*.log", active, 7)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expected old log removed")
	}
	for _, path := range []string{active, recent} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}
