package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithUpdateID attaches a logger carrying the inbound update id, so every log
// line produced while handling that update can be correlated.
func WithUpdateID(ctx context.Context, updateID int) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("update_id", updateID))
}
