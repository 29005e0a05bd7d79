// Package logger attaches structured fields to a context so that every log
// line of one run carries the same identifiers.
package logger

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
)

type contextKey int

const (
	loggerFieldsKey contextKey = iota
	contextLoggerKey
)

type loggerFields map[string]interface{}

func (lf loggerFields) clone() loggerFields {
	c := make(loggerFields, len(lf)+2)
	for k, v := range lf {
		c[k] = v
	}
	return c
}

// toSlice returns key/value pairs ordered by key.
func (lf loggerFields) toSlice() []interface{} {
	if len(lf) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lf))
	for k := range lf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]interface{}, 0, len(lf)*2)
	for _, k := range keys {
		slice = append(slice, k, lf[k])
	}
	return slice
}

func getLoggerFields(ctx context.Context) loggerFields {
	if lf, ok := ctx.Value(loggerFieldsKey).(loggerFields); ok {
		return lf
	}
	return nil
}

func withField(ctx context.Context, key string, value interface{}) context.Context {
	lf := getLoggerFields(ctx).clone()
	lf[key] = value
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// WithUID adds the deployment fingerprint as uid.
func WithUID(ctx context.Context, uid string) context.Context {
	if uid == "" {
		return ctx
	}
	return withField(ctx, "uid", uid)
}

// WithMode adds the CLI mode.
func WithMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return withField(ctx, "mode", mode)
}

// WithFields adds key/value pairs. A trailing key without a value and
// non-string keys are dropped.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	if len(keysAndValues) < 2 {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			lf[key] = keysAndValues[i+1]
		}
	}
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// ExtractOpenTelemetryFields copies trace_id and span_id from the active
// span, if it is recording.
func ExtractOpenTelemetryFields(ctx context.Context) context.Context {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return ctx
	}

	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	lf["trace_id"] = spanCtx.TraceID().String()
	lf["span_id"] = spanCtx.SpanID().String()
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// GetContextFields returns the fields stored in ctx ordered by key.
func GetContextFields(ctx context.Context) []interface{} {
	return getLoggerFields(ctx).toSlice()
}

// GetLogger returns the logger stored by WithLogger, or the global logger
// carrying the context fields.
func GetLogger(ctx context.Context) core.Logger {
	if ctxLogger, ok := ctx.Value(contextLoggerKey).(core.Logger); ok {
		return ctxLogger
	}
	return FromContext(ctx, logger.Global())
}

// FromContext returns base with the context fields attached.
func FromContext(ctx context.Context, base core.Logger) core.Logger {
	fields := GetContextFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// WithLogger stores a pre-configured logger in the context.
func WithLogger(ctx context.Context, log core.Logger) context.Context {
	return context.WithValue(ctx, contextLoggerKey, log)
}
