package service

import (
	"context"

	"github.com/louisbranch/pennywise/internal/platform/requestctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/pennywise/internal/services/expense/service"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	return otel.Tracer(tracerName).Start(ctx, "expense."+name, trace.WithAttributes(attrs...))
}

// endSpan records err, if any, and ends span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
