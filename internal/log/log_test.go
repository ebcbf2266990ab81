package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID on bare context = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "req_abc123")
	if got := RequestID(ctx); got != "req_abc123" {
		t.Errorf("RequestID = %q, want req_abc123", got)
	}
}

func TestHandlerAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo))

	ctx := WithRequestID(context.Background(), "req_abc123")
	logger.InfoContext(ctx, "card created", "card_id", 7)

	line := buf.String()
	if !strings.Contains(line, "request_id=req_abc123") {
		t.Errorf("log line %q missing request_id", line)
	}
	if !strings.Contains(line, "card_id=7") {
		t.Errorf("log line %q missing original attrs", line)
	}
}

func TestHandlerSkipsMissingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo))

	logger.InfoContext(context.Background(), "worker started")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("log line %q has request_id without one in context", buf.String())
	}
}

func TestHandlerWithAttrsKeepsDecoration(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo)).With("component", "http")

	ctx := WithRequestID(context.Background(), "req_def456")
	logger.InfoContext(ctx, "request")

	line := buf.String()
	if !strings.Contains(line, "request_id=req_def456") || !strings.Contains(line, "component=http") {
		t.Errorf("log line %q missing request_id or component", line)
	}
}
