// Package telemetry installs the OpenTelemetry trace and metric pipelines.
package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"clirouter/internal/system"
	"clirouter/internal/version"
)

// EnvEndpoint enables export when set; the exporters read the remaining
// OTEL_EXPORTER_OTLP_* variables themselves.
const EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Shutdown flushes and stops the pipeline.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs global tracer and meter providers exporting over OTLP/HTTP
// when EnvEndpoint is set in getenv. Without it both stay no-ops.
func Setup(ctx context.Context, getenv func(string) string) (Shutdown, error) {
	if getenv == nil || strings.TrimSpace(getenv(EnvEndpoint)) == "" {
		return noop, nil
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "clirouter"),
		attribute.String("service.version", version.AppVersion),
	)

	texp, err := otlptracehttp.New(ctx)
	if err != nil {
		return noop, err
	}
	mexp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = texp.Shutdown(ctx)
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(texp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	system.Logger.Debug("otlp export enabled", "endpoint", getenv(EnvEndpoint))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
