// Package trace provides tracing instrumentation for wire protocol commands.
package trace

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "xk6.webdriver"

// Tracer generates one span per wire protocol command. Every span carries the
// tracer metadata as attributes.
type Tracer struct {
	logger logrus.FieldLogger

	trace.Tracer

	metadata []attribute.KeyValue
}

// NewTracer creates a new Tracer from the given TracerProvider.
func NewTracer(
	logger logrus.FieldLogger, tp trace.TracerProvider, metadata map[string]string, options ...trace.TracerOption,
) *Tracer {
	return &Tracer{
		logger:   logger,
		Tracer:   tp.Tracer(tracerName, options...),
		metadata: buildMetadataAttributes(metadata),
	}
}

// NewNoopTracer returns a Tracer whose spans are never recorded.
func NewNoopTracer() *Tracer {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return NewTracer(l, noop.NewTracerProvider(), nil)
}

// Start overrides the underlying OTEL tracer method to include the tracer metadata.
func (t *Tracer) Start(
	ctx context.Context, spanName string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(t.metadata...))
	return t.Tracer.Start(ctx, spanName, opts...)
}

// TraceCommand starts a span for a wire command. It is the caller's
// responsibility to end it.
func (t *Tracer) TraceCommand(ctx context.Context, method, path string) (context.Context, trace.Span) {
	sCtx, span := t.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("webdriver.method", method),
			attribute.String("webdriver.path", path),
		),
	)
	spanName := method + " " + path

	return sCtx, &SpanLogger{Span: span, logger: t.logger, spanName: spanName}
}

// GetTraceID returns the trace ID of spanCtx, or an empty string.
func GetTraceID(spanCtx trace.SpanContext) string {
	if spanCtx.HasTraceID() {
		traceID := spanCtx.TraceID()
		return traceID.String()
	}
	return ""
}

func buildMetadataAttributes(metadata map[string]string) []attribute.KeyValue {
	meta := make([]attribute.KeyValue, 0, len(metadata))
	for mk, mv := range metadata {
		meta = append(meta, attribute.String(mk, mv))
	}

	return meta
}

// SpanLogger is a Span that will log the method calls.
type SpanLogger struct {
	trace.Span
	logger   logrus.FieldLogger
	spanName string
}

// SetStatus will log some info before calling the underlying SetStatus.
func (i *SpanLogger) SetStatus(code codes.Code, description string) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("SetStatus: spanName: %q traceID: %q code: %q description: %q", i.spanName, traceID, code, description)

	i.Span.SetStatus(code, description)
}

// End will log some info before calling the underlying End.
func (i *SpanLogger) End(options ...trace.SpanEndOption) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("End: spanName: %q traceID: %q", i.spanName, traceID)

	i.Span.End(options...)
}

// RecordError will log some info before calling the underlying RecordError.
func (i *SpanLogger) RecordError(err error, options ...trace.EventOption) {
	traceID := GetTraceID(i.SpanContext())
	i.logger.Debugf("RecordError: spanName: %q traceID: %q err: %q", i.spanName, traceID, err)

	i.Span.RecordError(err, options...)
}
