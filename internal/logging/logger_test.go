package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, slog.LevelInfo)
	logger := slog.New(handler)
	logger.Info("stage started", String("stage", "render"))

	out := buf.String()
	if !strings.Contains(out, "stage started") || !strings.Contains(out, "stage=render") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for non-tty writer: %q", out)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, slog.LevelWarn)
	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithStage(WithTask(context.Background(), "task-1", "script-9"), "acquisition")
	WithContext(ctx, logger).Info("working")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	if record[FieldTaskID] != "task-1" || record[FieldScriptID] != "script-9" || record[FieldStage] != "acquisition" {
		t.Fatalf("missing context fields: %v", record)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens")
}
