package relay

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/bjaus/relay"

// Span attribute keys.
const (
	AttrKind      = attribute.Key("relay.kind")
	AttrTarget    = attribute.Key("relay.target")
	AttrMatchType = attribute.Key("relay.match_type")
	AttrRequestID = attribute.Key("relay.request_id")
)

func (r *Router) startSpan(ctx context.Context) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "relay.Dispatch", trace.WithSpanKind(trace.SpanKindServer))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

func (r *Router) log(ctx context.Context) *zap.Logger {
	return r.logger.With(traceFields(ctx)...)
}
