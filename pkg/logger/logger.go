package logger

import (
	"context"
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Debug level is enabled
// outside production so local runs show SQL timings and limiter decisions.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv != "production" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
