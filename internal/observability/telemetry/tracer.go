package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationPrefix = "rentmap-voice/"
	defaultCollector      = "http://jaeger:14268/api/traces"
)

// Tracer returns the tracer for one stage of the voice pipeline
// ("resolver", "dispatcher").
func Tracer(stage string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + stage)
}

// InitTracer installs a global provider exporting to Jaeger and returns its
// shutdown function. Until it runs, Tracer hands out no-op tracers.
func InitTracer(serviceName, serviceVersion, endpoint string, sampleRatio float64) (func(context.Context) error, error) {
	if endpoint == "" {
		endpoint = defaultCollector
	}
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("jaeger exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case sampleRatio <= 0:
		sampler = sdktrace.NeverSample()
	case sampleRatio >= 1:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
