package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"metafix/internal/logging"
)

func consoleLogger(t *testing.T, format, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, closer, err := logging.NewRunLogger(logging.RunOptions{Format: format, Level: level, Console: &buf})
	if err != nil {
		t.Fatalf("NewRunLogger: %v", err)
	}
	t.Cleanup(func() { _ = closer.Close() })
	return logger, &buf
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logger, buf := consoleLogger(t, "console", "info")
	logger.Info("message without source")

	line := buf.String()
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", line)
	}
	if !strings.Contains(line, "INFO message without source") {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logger, buf := consoleLogger(t, "console", "debug")
	logger.Info("message with source")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", buf.String())
	}
}

func TestRunLoggerRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.NewRunLogger(logging.RunOptions{Format: "xml", Console: io.Discard}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, buf := consoleLogger(t, "json", "loud")
	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestConsoleShowsStageAndHidesRunID(t *testing.T) {
	logger, buf := consoleLogger(t, "console", "info")
	ctx := logging.WithStage(logging.WithRunID(context.Background(), "run-42"), "apply")

	logging.NewComponentLogger(logging.WithContext(ctx, logger), "metadata").Info("metadata applied")
	line := buf.String()
	if !strings.Contains(line, "INFO [apply] metadata: metadata applied") {
		t.Fatalf("stage prefix missing: %q", line)
	}
	if strings.Contains(line, "run-42") {
		t.Fatalf("run id should stay out of the console: %q", line)
	}
}

func TestConsoleHandlerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.NewRunLogger(logging.RunOptions{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("NewRunLogger: %v", err)
	}
	defer closer.Close()

	logging.NewComponentLogger(logger, "pairing").Info("sidecar matched", logging.String("media", "a b.jpg"))
	line := buf.String()
	if !strings.Contains(line, "INFO pairing: sidecar matched") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, `media="a b.jpg"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as a field: %q", line)
	}
}

func TestRunLoggerWritesDebugRecordsToFile(t *testing.T) {
	var buf bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "metafix_archive.log")
	logger, closer, err := logging.NewRunLogger(logging.RunOptions{Level: "info", Console: &buf, LogPath: logPath})
	if err != nil {
		t.Fatalf("NewRunLogger: %v", err)
	}
	logger.Debug("detail only in file", logging.Int("count", 3))
	logger.Info("on both")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if strings.Contains(buf.String(), "detail only in file") {
		t.Fatalf("console received debug record: %q", buf.String())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d: %q", len(lines), data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if first["msg"] != "detail only in file" || first["level"] != "debug" {
		t.Fatalf("unexpected record %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Fatalf("expected ts key in %v", first)
	}
}

func TestRunLogName(t *testing.T) {
	cases := map[string]string{
		"/photos/Takeout 2024":  "metafix_Takeout_2024.log",
		"/photos/a:b/":          "metafix_a_b.log",
		"relative/Google Fotos": "metafix_Google_Fotos.log",
		"/":                     "metafix_root.log",
	}
	for in, want := range cases {
		if got := logging.RunLogName(in); got != want {
			t.Errorf("RunLogName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := logging.WithStage(logging.WithRunID(context.Background(), "run-1"), "apply")

	logging.WithContext(ctx, base).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[logging.FieldRunID] != "run-1" || rec[logging.FieldStage] != "apply" {
		t.Fatalf("context fields missing: %v", rec)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "rename failed", "media_rename_failed",
		logging.String(logging.FieldImpact, "pair keeps its old name"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[logging.FieldEventType] != "media_rename_failed" {
		t.Fatalf("event type = %v", rec[logging.FieldEventType])
	}
	if rec[logging.FieldImpact] != "pair keeps its old name" {
		t.Fatalf("impact overridden: %v", rec[logging.FieldImpact])
	}
	if rec[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}

func TestCleanupOldLogsRemovesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	oldLog := filepath.Join(dir, "metafix_old.log")
	freshLog := filepath.Join(dir, "metafix_fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldLog, freshLog, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldLog, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{Dir: dir, Pattern: "metafix_*.log"})

	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, p := range []string{freshLog, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
