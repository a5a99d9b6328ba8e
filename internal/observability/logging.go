package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogContext holds structured logging context for one tool invocation.
type LogContext struct {
	InvocationID string
	User         string
	Area         string
	Operation    string
}

// logContextKeyType is used for context values.
type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// NewInvocation returns a context carrying a fresh invocation id. Every log
// line of one run of the tool shares the id, so interleaved runs on a busy
// login node can be told apart.
func NewInvocation(ctx context.Context) context.Context {
	lc := extractLogContext(ctx)
	lc.InvocationID = uuid.NewString()
	return context.WithValue(ctx, logContextKey, lc)
}

// WithUser adds the calling user to the context.
func WithUser(ctx context.Context, user string) context.Context {
	lc := extractLogContext(ctx)
	lc.User = user
	return context.WithValue(ctx, logContextKey, lc)
}

// WithArea adds the resolved storage area to the context.
func WithArea(ctx context.Context, area string) context.Context {
	lc := extractLogContext(ctx)
	lc.Area = area
	return context.WithValue(ctx, logContextKey, lc)
}

// WithOperation adds the lifecycle operation name to the context.
func WithOperation(ctx context.Context, op string) context.Context {
	lc := extractLogContext(ctx)
	lc.Operation = op
	return context.WithValue(ctx, logContextKey, lc)
}

// extractLogContext retrieves or creates a LogContext from the context.
func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.InvocationID != "" {
		attrs = append(attrs, slog.String("invocation.id", lc.InvocationID))
	}
	if lc.User != "" {
		attrs = append(attrs, slog.String("user", lc.User))
	}
	if lc.Area != "" {
		attrs = append(attrs, slog.String("area", lc.Area))
	}
	if lc.Operation != "" {
		attrs = append(attrs, slog.String("operation", lc.Operation))
	}

	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelInfo, msg, allAttrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelWarn, msg, allAttrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelDebug, msg, allAttrs...)
}
