package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// readEntries parses every JSON log line written by a Logger.
func readEntries(t *testing.T, dir string) []map[string]any {
	t.Helper()

	f, err := os.Open(filepath.Join(dir, DefaultFileName))
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("parse log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Config{Level: "INFO", Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("turn completed", "turn", 12)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["msg"] != "turn completed" {
		t.Errorf("msg = %v, want %q", entries[0]["msg"], "turn completed")
	}
	if entries[0]["turn"] != float64(12) {
		t.Errorf("turn = %v, want 12", entries[0]["turn"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Config{Level: "WARN", Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")
	logger.Error("shown too")
	logger.Close()

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0]["msg"] != "shown" || entries[1]["msg"] != "shown too" {
		t.Errorf("unexpected messages: %v, %v", entries[0]["msg"], entries[1]["msg"])
	}
}

func TestChildLoggers_CarryAttributes(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Config{Level: "DEBUG", Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	child := logger.WithSession("sess-1").WithAgent("Proponent").WithComponent("flow")
	child.Debug("speaking", "turn", 3)

	// The parent is unaffected by child attributes.
	logger.Debug("parent entry")
	logger.Close()

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	first := entries[0]
	if first["session_id"] != "sess-1" {
		t.Errorf("session_id = %v, want %q", first["session_id"], "sess-1")
	}
	if first["agent"] != "Proponent" {
		t.Errorf("agent = %v, want %q", first["agent"], "Proponent")
	}
	if first["component"] != "flow" {
		t.Errorf("component = %v, want %q", first["component"], "flow")
	}

	second := entries[1]
	if _, ok := second["session_id"]; ok {
		t.Error("parent logger entry should not carry session_id")
	}
}

func TestWith_IgnoresNonStringKeys(t *testing.T) {
	logger := NewNop().With(42, "value", "ok", "yes")

	if len(logger.attrs) != 1 {
		t.Fatalf("got %d attrs, want 1", len(logger.attrs))
	}
	if logger.attrs[0].Key != "ok" {
		t.Errorf("attr key = %q, want %q", logger.attrs[0].Key, "ok")
	}
}

func TestNewNop_DiscardsAndCloses(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevels(t *testing.T) {
	want := "DEBUG,INFO,WARN,ERROR"
	if got := strings.Join(ValidLevels(), ","); got != want {
		t.Errorf("ValidLevels() = %q, want %q", got, want)
	}
}
