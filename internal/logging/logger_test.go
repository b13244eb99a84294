package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"redub/internal/services"
)

func TestPrettyHandlerPullsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("separation finished", String(FieldComponent, "separator"), Float64("score", 0.62))

	line := buf.String()
	if !strings.Contains(line, "INFO separator: separation finished") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "score=0.62") {
		t.Fatalf("missing attribute in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be folded into the prefix: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Warn("download slow", String("title", "two words"))

	if !strings.Contains(buf.String(), `title="two words"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestWithContextAddsItemAndStage(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	ctx := services.WithItemID(context.Background(), 7)
	ctx = services.WithStage(ctx, "separate")

	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "item_id=7") || !strings.Contains(line, "stage=separate") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewWritesToFileOnce(t *testing.T) {
	path := t.TempDir() + "/redub.log"
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path, path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("queued", Int64("item_id", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := strings.Count(string(data), "queued"); got != 1 {
		t.Fatalf("duplicate output path should be deduplicated, got %d lines: %q", got, data)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("parseLevel = %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel debug = %v", got)
	}
}
