package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of service-level spans
const TracerName = "github.com/matflow/backend"

// Span attribute keys for material flow operations
const (
	SpanAttrMaterialID    = "material.id"
	SpanAttrAcquisitionID = "acquisition.id"
	SpanAttrPlanID        = "plan.id"
	SpanAttrActorID       = "actor.id"
	SpanAttrQuantity      = "quantity"
)

// StartServiceSpan starts a span named {service}.{method} using the global tracer provider.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "production_receiver", "complete",
//	    attribute.String(telemetry.SpanAttrPlanID, id.String()))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err, if any, sets the span status and ends the span.
// Use it with a named error return: defer func() { telemetry.EndSpan(span, err) }().
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace id of the span in ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
