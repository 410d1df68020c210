package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/k1networth/techdesk/internal/shared/env"
)

// Setup installs an OTLP/gRPC tracer provider when OTEL_EXPORTER_OTLP_ENDPOINT is set.
// The returned func flushes and stops it; without an endpoint it is a no-op.
func Setup(ctx context.Context, log *slog.Logger, serviceName string) func(context.Context) error {
	endpoint := env.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if env.Bool("OTEL_EXPORTER_OTLP_INSECURE", false) {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Error("otel_exporter_failed", slog.String("err", err.Error()))
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		log.Warn("otel_resource_failed", slog.String("err", err.Error()))
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Info("otel_enabled", slog.String("endpoint", endpoint))
	return provider.Shutdown
}
