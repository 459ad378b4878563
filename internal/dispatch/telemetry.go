package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "clirouter/internal/dispatch"

// instruments holds the tracer and meters used per dispatch.
type instruments struct {
	tracer   trace.Tracer
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) (instruments, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	count, err := meter.Int64Counter("clirouter.dispatch.count",
		metric.WithDescription("Number of dispatches by resolving fallback level"),
	)
	if err != nil {
		return instruments{}, err
	}
	dur, err := meter.Float64Histogram("clirouter.dispatch.duration",
		metric.WithDescription("Duration of a dispatch in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return instruments{}, err
	}
	return instruments{tracer: tp.Tracer(instrumentationName), count: count, duration: dur}, nil
}

func (in instruments) record(ctx context.Context, res Result) {
	attrs := metric.WithAttributes(
		attribute.String("tool", res.Tool),
		attribute.Int("level", res.FallbackLevel),
		attribute.Bool("success", res.Success),
	)
	in.count.Add(ctx, 1, attrs)
	in.duration.Record(ctx, res.ExecutionTime, metric.WithAttributes(attribute.String("tool", res.Tool)))
}
