package logger

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey is the private context key for the per-request logger.
type loggerKey struct{}

// ContextWithLogger returns a child context carrying the given logger,
// typically enriched with the request id by the HTTP middleware.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger carried by the context. Code paths reached
// outside a request (startup, batch jobs) get a nop logger rather than nil.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
