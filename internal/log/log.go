// Package log carries the request id through the context so every slog
// line emitted while serving a request can be correlated with its
// completion entry.
package log

import (
	"context"
	"io"
	"log/slog"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "" when there is
// none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Handler decorates a slog.Handler, attaching the context's request id
// to every record logged through it.
type Handler struct {
	slog.Handler
}

// NewHandler builds a request-id aware text handler writing to w.
func NewHandler(w io.Writer, level slog.Level) Handler {
	return Handler{Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})}
}

func (h Handler) Handle(ctx context.Context, rec slog.Record) error {
	if id := RequestID(ctx); id != "" {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}
