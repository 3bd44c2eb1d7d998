package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	var text bytes.Buffer
	logger, err := New(&text, slog.LevelInfo, "TEXT")
	if err != nil {
		t.Fatalf("New(text) failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "migration", "20230101000000-init")
	if strings.Contains(text.String(), "hidden") {
		t.Errorf("debug record written at info level: %s", text.String())
	}
	if !strings.Contains(text.String(), "migration=20230101000000-init") {
		t.Errorf("unexpected text output: %s", text.String())
	}

	var js bytes.Buffer
	logger, err = New(&js, slog.LevelDebug, FormatJSON)
	if err != nil {
		t.Fatalf("New(json) failed: %v", err)
	}
	logger.Debug("shown")
	if !strings.Contains(js.String(), `"msg":"shown"`) {
		t.Errorf("unexpected json output: %s", js.String())
	}

	if _, err := New(&js, slog.LevelInfo, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestContextWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("expected nil logger, got %v", got)
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Errorf("nil logger should leave the context untouched")
	}
}
