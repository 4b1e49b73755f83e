package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError records err on the span and marks it failed.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// RecordFallback marks the span in ctx as having recovered from a capability
// failure. The span status stays OK because the run continues.
func RecordFallback(ctx context.Context, reason string) {
	trace.SpanFromContext(ctx).AddEvent("fallback_used", trace.WithAttributes(
		attribute.String("reason", reason),
	))
}
