package web

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type ctxKey int

const key ctxKey = 1

// BaseValues carries per-request state through the handler chain.
type BaseValues struct {
	TraceID    string
	Now        time.Time
	Tracer     trace.Tracer
	StatusCode int
}

func setValues(ctx context.Context, v *BaseValues) context.Context {
	return context.WithValue(ctx, key, v)
}

// GetValues returns the values from the context. A stub is returned if
// the values are missing, so callers never need a nil check.
func GetValues(ctx context.Context) *BaseValues {
	v, ok := ctx.Value(key).(*BaseValues)
	if !ok {
		return &BaseValues{
			TraceID: "00000000-0000-0000-0000-000000000000",
			Tracer:  noop.NewTracerProvider().Tracer("no-op tracer"),
			Now:     time.Now(),
		}
	}

	return v
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	v, ok := ctx.Value(key).(*BaseValues)
	if !ok {
		return "00000000-0000-0000-0000-000000000000"
	}

	return v.TraceID
}

// SetStatusCode sets the status code into the context, letting the
// logging middleware report what the handler responded with.
func SetStatusCode(ctx context.Context, statusCode int) {
	v, ok := ctx.Value(key).(*BaseValues)
	if !ok {
		return
	}

	v.StatusCode = statusCode
}

// AddSpan adds an otel span to the existing trace.
func AddSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := ctx.Value(key).(*BaseValues)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := v.Tracer.Start(ctx, spanName)
	span.SetAttributes(keyValues...)

	return ctx, span
}
