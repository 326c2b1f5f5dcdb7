package obs

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// WithTrace returns log tagged with the span carried by ctx. Without a valid
// span the logger is returned unchanged; a nil logger becomes a no-op.
func WithTrace(ctx context.Context, log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	fs := TraceFields(ctx)
	if fs == nil {
		return log
	}
	return log.With(fs...)
}

// TraceFields is the zap form of the span context in ctx, nil when there is none.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	fs := []zap.Field{
		zap.Stringer("trace_id", sc.TraceID()),
		zap.Stringer("span_id", sc.SpanID()),
	}
	if sc.IsRemote() {
		fs = append(fs, zap.Bool("span_remote", true))
	}
	return fs
}
