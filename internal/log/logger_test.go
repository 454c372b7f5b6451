package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func resetForTest(t *testing.T) {
	t.Helper()
	logger = nil
	once = *new(sync.Once)
	t.Cleanup(func() {
		logger = nil
		once = *new(sync.Once)
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON %q: %v", buf.String(), err)
	}
	return out
}

func TestSetup_LevelFiltering(t *testing.T) {
	resetForTest(t)

	var buf bytes.Buffer
	Setup("warn", "json", &buf)

	Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("INFO should be filtered at WARN level, got %q", buf.String())
	}

	Warn("kept")
	out := decodeLine(t, &buf)
	if out["msg"] != "kept" {
		t.Errorf("Expected msg 'kept', got %v", out["msg"])
	}
}

func TestSetup_OnlyFirstCallApplies(t *testing.T) {
	resetForTest(t)

	var first, second bytes.Buffer
	Setup("info", "json", &first)
	Setup("debug", "json", &second)

	Info("hello")
	if first.Len() == 0 {
		t.Error("Expected output on first writer")
	}
	if second.Len() != 0 {
		t.Error("Second Setup call should be ignored")
	}
}

func TestSetup_TextFormat(t *testing.T) {
	resetForTest(t)

	var buf bytes.Buffer
	Setup("info", "TEXT", &buf)
	Info("plain", "key", "value")

	if !strings.Contains(buf.String(), "msg=plain") || !strings.Contains(buf.String(), "key=value") {
		t.Errorf("Expected text handler output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger = nil })

	WithComponent("sink").Info("component msg")
	out := decodeLine(t, &buf)
	if out["component"] != "sink" {
		t.Errorf("Expected component 'sink', got %v", out["component"])
	}

	buf.Reset()
	WithSubscription(42).Info("subscription msg")
	out = decodeLine(t, &buf)
	if out["subscription_id"] != float64(42) {
		t.Errorf("Expected subscription_id 42, got %v", out["subscription_id"])
	}

	buf.Reset()
	WithDelivery(9).Info("delivery msg")
	out = decodeLine(t, &buf)
	if out["delivery_id"] != float64(9) {
		t.Errorf("Expected delivery_id 9, got %v", out["delivery_id"])
	}
}
