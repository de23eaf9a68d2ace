package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesToBufferAndFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "menu.log")
	var buf bytes.Buffer
	logger, closer, err := New(Config{Level: "debug", File: path}, &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("transition applied", "menu_type", "TabbedMenu")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if !strings.Contains(buf.String(), "menu_type=TabbedMenu") {
		t.Fatalf("buffer missing record: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "transition applied") {
		t.Fatalf("file missing record: %q", data)
	}
}

func TestNewJSONFormatFiltersLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, _, err := New(Config{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Fatalf("expected json record, got %q", out)
	}
}
