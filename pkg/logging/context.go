package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return Ctx(ctx, Default())
}

// Ctx returns the logger stored in ctx, or fallback when there is none.
// Components with an injected logger use it so that fields added higher
// up the call chain are kept.
func Ctx(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return fallback
}

// WithFields returns a context whose logger carries fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return WithLogger(ctx, &l)
}

// WithField is WithFields for a single key.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithFields(ctx, map[string]any{key: value})
}

// WithProject tags log lines with the project being reconciled.
func WithProject(ctx context.Context, project string) context.Context {
	return WithField(ctx, "project", project)
}

// WithFlow tags log lines with the command flow (compare, remote, local,
// missing, request).
func WithFlow(ctx context.Context, flow string) context.Context {
	return WithField(ctx, "flow", flow)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
