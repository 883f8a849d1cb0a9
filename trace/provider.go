package trace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "xk6-webdriver"

// ErrUnsupportedProto indicates that the defined exporter protocol is not supported.
var ErrUnsupportedProto = errors.New("unsupported protocol")

// TraceProvider provides tracers and shuts down their processing pipeline.
type TraceProvider interface {
	trace.TracerProvider
	Shutdown(ctx context.Context) error
}

type traceProvider struct {
	trace.TracerProvider

	noop     bool
	shutdown func(ctx context.Context) error
}

// NewTraceProvider creates a trace provider exporting spans over OTLP to
// endpoint. Only the "http" protocol is supported.
func NewTraceProvider(
	ctx context.Context, proto, endpoint string, insecure bool,
) (TraceProvider, error) {
	client, err := newClient(proto, endpoint, insecure)
	if err != nil {
		return nil, fmt.Errorf("creating exporter client: %w", err)
	}

	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("creating exporter: %w", err)
	}

	prov := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)

	return &traceProvider{
		TracerProvider: prov,
		shutdown:       prov.Shutdown,
	}, nil
}

func newClient(proto, endpoint string, insecure bool) (otlptrace.Client, error) {
	switch strings.ToLower(proto) {
	case "http", "":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.NewClient(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProto, proto)
	}
}

// NewNoopTraceProvider creates a trace provider that records nothing.
func NewNoopTraceProvider() TraceProvider {
	return &traceProvider{
		TracerProvider: noop.NewTracerProvider(),
		noop:           true,
	}
}

// Shutdown flushes the pending spans and releases the exporter. After
// Shutdown is called, all methods are no-ops.
func (tp *traceProvider) Shutdown(ctx context.Context) error {
	if tp.noop {
		return nil
	}

	return tp.shutdown(ctx)
}
