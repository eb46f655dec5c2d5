package otelhelper

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MarkFailed records err on the span and flips its status to error. A nil
// span is a no-op so callers do not need to guard the tracing-disabled case.
func MarkFailed(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
