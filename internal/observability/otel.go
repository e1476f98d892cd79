// Package observability wires OpenTelemetry tracing for the composer
// binaries. Tracing is opt-in via OTEL_ENABLED; without it the no-op global
// tracer stays in place and the compose spans cost nothing.
package observability

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

var (
	initOnce sync.Once
	shutdown func(context.Context) error
)

// Init installs the global tracer provider. It returns the shutdown hook,
// which is nil when tracing is disabled. Failures degrade to the default
// provider; composition never depends on the trace pipeline.
func Init(ctx context.Context, serviceName, version string) func(context.Context) error {
	initOnce.Do(func() {
		if !enabled() {
			return
		}
		if serviceName == "" {
			serviceName = "report-composer"
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
			attribute.String("service.component", serviceName),
		))
		if err != nil {
			log.Printf("observability resource init failed, continuing: %v", err)
		}

		exporter, err := buildExporter(ctx)
		if err != nil {
			log.Printf("observability exporter init failed, continuing without traces: %v", err)
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		shutdown = tp.Shutdown
		log.Printf("observability tracing initialized service=%s endpoint=%s", serviceName, endpoint())
	})
	return shutdown
}

func enabled() bool {
	switch strings.ToLower(getEnv("OTEL_ENABLED")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func sampleRatio() float64 {
	raw := getEnv("OTEL_SAMPLER_RATIO")
	if raw == "" {
		return 1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func endpoint() string { return getEnv("OTEL_EXPORTER_OTLP_ENDPOINT") }

func buildExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if ep := endpoint(); ep != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(ep)}
		if insecure() {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	// Batch runs are short-lived; stdout traces are enough for local debugging.
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func insecure() bool {
	switch strings.ToLower(getEnv("OTEL_EXPORTER_OTLP_INSECURE")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnv(key string) string { return strings.TrimSpace(os.Getenv(key)) }
