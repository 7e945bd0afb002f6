package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracingOptions selects the span exporter. With an Endpoint spans go to an
// OTLP gRPC collector, otherwise they are pretty-printed to Writer.
type TracingOptions struct {
	Enabled  bool
	Endpoint string
	Writer   io.Writer
}

// Tracing stores the initialized tracer and its shutdown hook.
type Tracing struct {
	Tracer   oteltrace.Tracer
	Shutdown func(context.Context) error
}

// SetupTracing initializes OpenTelemetry for serviceName. When tracing is
// disabled the global (no-op) tracer is returned.
func SetupTracing(ctx context.Context, serviceName string, opts TracingOptions) (Tracing, error) {
	noop := Tracing{
		Tracer:   otel.Tracer(serviceName),
		Shutdown: func(context.Context) error { return nil },
	}
	if !opts.Enabled {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
		),
	)
	if err != nil {
		return Tracing{}, fmt.Errorf("otel resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return Tracing{}, fmt.Errorf("otel otlp exporter: %w", err)
		}
	} else {
		stdoutOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if opts.Writer != nil {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithWriter(opts.Writer))
		}
		exp, err = stdouttrace.New(stdoutOpts...)
		if err != nil {
			return Tracing{}, fmt.Errorf("otel stdout exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return Tracing{
		Tracer:   tp.Tracer(serviceName),
		Shutdown: tp.Shutdown,
	}, nil
}
