// Package ctxlog threads a *slog.Logger through a context.Context so that
// the benchmark harness's scenario-loading and run-reporting code never
// needs a global logger or an explicit logger parameter on every call.
package ctxlog

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var key = ctxKey{}

// Into returns a copy of ctx carrying logger.
func Into(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key, logger)
}

// From extracts the logger embedded by Into. Panics if none was ever
// embedded, since that always indicates a harness wiring bug rather than
// something callers should degrade gracefully from.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: no logger in context")
}
