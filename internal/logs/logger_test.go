package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFanoutToTextAndFile(t *testing.T) {
	var text bytes.Buffer
	path := filepath.Join(t.TempDir(), "jihll.log")

	logger, closeLog, err := New(Options{Level: "info", Writer: &text, File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Error("task failed", "task", "abc", "kind", "type mismatch")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(text.String(), "hidden") {
		t.Error("debug record passed an info level")
	}
	if !strings.Contains(text.String(), "task=abc") {
		t.Errorf("text output missing attrs: %q", text.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("file does not hold one JSON record: %v\n%s", err, data)
	}
	if record["msg"] != "task failed" || record["kind"] != "type mismatch" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestSetLevelAffectsExistingLoggers(t *testing.T) {
	var text bytes.Buffer
	logger, _, err := New(Options{Level: "error", Writer: &text})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("before")
	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	logger.Debug("after")

	out := text.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("expected error")
	}
}
