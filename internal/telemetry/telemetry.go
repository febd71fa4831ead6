// Package telemetry centralizes OpenTelemetry SDK bring-up for the
// module. Every I/O package (internal/store, internal/indexer,
// internal/query/exec, internal/vg, ...) calls otel.Tracer(...) and
// otel.Meter(...) against the global provider at init time — exactly
// the pattern internal/storage/dolt uses for its doltTracer/doltMetrics
// — which is a no-op until Init is called. A process that never calls
// Init still runs correctly; it just exports nothing.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter selects where spans/metrics go once Init runs.
type Exporter int

const (
	// Stdout writes human-readable spans/metrics to stdout — the
	// default for local development and tests.
	Stdout Exporter = iota
	// OTLPHTTP ships metrics to a collector at Config.OTLPEndpoint;
	// spans go to the stdout span exporter.
	OTLPHTTP
)

// Config selects the SDK's exporter and carries the resource attributes
// attached to every span and metric point.
type Config struct {
	ServiceName string
	Exporter    Exporter
	// OTLPEndpoint is the collector address (host:port) used when
	// Exporter is OTLPHTTP; ignored otherwise.
	OTLPEndpoint string
}

// Shutdown flushes and releases the providers Init installed. Callers
// should defer it from main.
type Shutdown func(context.Context) error

// Init installs a TracerProvider and MeterProvider as the OTel global
// providers, replacing the no-op defaults. Safe to call at most once
// per process; calling it again replaces the previous providers without
// shutting them down.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName(cfg)),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp, mp, err := buildProviders(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: shut down tracer provider: %w", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: shut down meter provider: %w", err)
		}
		return nil
	}, nil
}

func serviceName(cfg Config) string {
	if cfg.ServiceName == "" {
		return "fluree-db"
	}
	return cfg.ServiceName
}

func buildProviders(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, *metric.MeterProvider, error) {
	switch cfg.Exporter {
	case OTLPHTTP:
		return buildOTLPProviders(ctx, cfg, res)
	default:
		return buildStdoutProviders(res)
	}
}

func buildStdoutProviders(res *resource.Resource) (*sdktrace.TracerProvider, *metric.MeterProvider, error) {
	spanExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build stdout span exporter: %w", err)
	}
	metricExp, err := stdoutmetric.New()
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build stdout metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExp),
		sdktrace.WithResource(res),
	)
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExp)),
		metric.WithResource(res),
	)
	return tp, mp, nil
}

func buildOTLPProviders(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, *metric.MeterProvider, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, nil, fmt.Errorf("telemetry: OTLPEndpoint required for OTLPHTTP exporter")
	}

	metricExp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build otlp metric exporter: %w", err)
	}

	// Span export in production still goes through the stdout exporter
	// batcher plumbing today; a collector-bound span pipeline is future
	// work once a concrete collector target exists to test against.
	spanExp, err := stdouttrace.New()
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExp),
		sdktrace.WithResource(res),
	)
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExp)),
		metric.WithResource(res),
	)
	return tp, mp, nil
}
