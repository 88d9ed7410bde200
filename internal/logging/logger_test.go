package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"quaver/internal/services"
)

func newConsoleLogger(lvl string) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(lvl))
	return slog.New(newConsoleHandler(buf, levelVar)), buf
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	logger, buf := newConsoleLogger("info")
	logger.Info("job started", slog.Int64(FieldJobID, 7), slog.String("mode", "passthrough"))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO ") {
		t.Errorf("line missing level label: %q", line)
	}
	if !strings.Contains(line, "job started") {
		t.Errorf("line missing message: %q", line)
	}
	if !strings.Contains(line, "job_id=7") || !strings.Contains(line, "mode=passthrough") {
		t.Errorf("line missing attrs: %q", line)
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	logger, buf := newConsoleLogger("info")
	NewComponentLogger(logger, "workflow").Info("stage started")

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " workflow: stage started") {
		t.Errorf("component not promoted into prefix: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component repeated as attr: %q", line)
	}
}

func TestConsoleHandlerQuotesAwkwardValues(t *testing.T) {
	logger, buf := newConsoleLogger("info")
	logger.Info("note", slog.String("detail", "two words"), slog.String("empty", ""))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, `detail="two words"`) {
		t.Errorf("spaced value not quoted: %q", line)
	}
	if !strings.Contains(line, `empty=""`) {
		t.Errorf("empty value not quoted: %q", line)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	logger, buf := newConsoleLogger("warn")
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newJSONHandler(buf, levelVar))

	logger.Info("job finished", slog.Int64(FieldJobID, 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "job finished" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Errorf("level = %v, want lowercase info", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Error("record missing ts field")
	}
	if record[FieldJobID] != float64(12) {
		t.Errorf("job_id = %v", record[FieldJobID])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"WARN":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"":         slog.LevelInfo,
		"whatever": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("New accepted an unknown format")
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithRequestID(services.WithStage(services.WithJobID(context.Background(), 9), "quantizing"), "req-1")
	fields := ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(fields))
	}

	logger, buf := newConsoleLogger("info")
	WithContext(ctx, logger).Info("checkpoint")
	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"job_id=9", "stage=quantizing", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %s: %q", want, line)
		}
	}
}

func TestWithContextNoFieldsReturnsSameLogger(t *testing.T) {
	logger := NewNop()
	if got := WithContext(context.Background(), logger); got != logger {
		t.Error("WithContext allocated a new logger for an empty context")
	}
}
