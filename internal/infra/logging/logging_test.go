//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"wifi-voucher/internal/config"
)

func TestWithAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "user-9")
	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if line["trace_id"] != "trace-1" || line["user_id"] != "user-9" {
		t.Errorf("context fields missing: %v", line)
	}
	if _, ok := line["purchase_id"]; ok {
		t.Errorf("purchase_id should be absent: %v", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("secret", false); got != "***" {
		t.Errorf("short value: got %q", got)
	}
	if got := Redact("abcdefghijkl", false); got != "abcd...kl" {
		t.Errorf("long value: got %q", got)
	}
	if got := Redact("abc", true); got != "abc" {
		t.Errorf("dev mode should not redact, got %q", got)
	}
}
