package tracer

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"arivu-ai-be/internal/config"
)

const serviceName = "arivu-ai-backend"

// Init wires the OTLP HTTP exporter into the global tracer provider and
// returns a shutdown hook for main to defer. Tracing is off unless
// cfg.App.OtelEnabled is set; an exporter failure downgrades to a no-op
// rather than blocking startup.
func Init(cfg *config.Config) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	if !cfg.App.OtelEnabled {
		log.Println("Tracing disabled (set OTEL_ENABLED=true to enable)")
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.App.OtelEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("[WARN] OTLP exporter unavailable, tracing disabled: %v", err)
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironment(cfg.App.Environment),
		)),
	)

	otel.SetTracerProvider(tp)
	log.Printf("✅ Tracer initialized (endpoint: %s)", cfg.App.OtelEndpoint)

	return tp.Shutdown
}
