package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	metricSDK "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	traceSDK "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	shutdownTimeout = 5 * time.Second
	exportInterval  = 30 * time.Second
)

// Config holds telemetry configuration for a service
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
}

// Telemetry carries the tracer and meter of one service
type Telemetry struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetry binds a Telemetry to the global providers
func NewTelemetry(config Config) *Telemetry {
	return &Telemetry{
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}
}

// InitTelemetry installs the global tracer and meter providers. Metrics are
// always exposed to Prometheus; traces and metrics are also pushed over OTLP
// when an endpoint is set. The returned function flushes and stops both
// providers.
func InitTelemetry(ctx context.Context, config Config) (*Telemetry, func(), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build resource")
	}

	tracerProvider, err := newTracerProvider(ctx, res, config.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}

	meterProvider, err := newMeterProvider(ctx, res, config.OTLPEndpoint)
	if err != nil {
		shutdown(tracerProvider.Shutdown)
		return nil, nil, err
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	stop := func() {
		shutdown(tracerProvider.Shutdown)
		shutdown(meterProvider.Shutdown)
	}

	return NewTelemetry(config), stop, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string) (*traceSDK.TracerProvider, error) {
	if endpoint == "" {
		return traceSDK.NewTracerProvider(traceSDK.WithResource(res)), nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	return traceSDK.NewTracerProvider(
		traceSDK.WithBatcher(exporter),
		traceSDK.WithResource(res),
		traceSDK.WithSampler(traceSDK.AlwaysSample()),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, endpoint string) (*metricSDK.MeterProvider, error) {
	scrape, err := prometheus.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prometheus exporter")
	}

	options := []metricSDK.Option{
		metricSDK.WithResource(res),
		metricSDK.WithReader(scrape),
	}

	if endpoint != "" {
		push, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create metric exporter")
		}
		options = append(options, metricSDK.WithReader(
			metricSDK.NewPeriodicReader(push, metricSDK.WithInterval(exportInterval)),
		))
	}

	return metricSDK.NewMeterProvider(options...), nil
}

func shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = fn(ctx)
}

// StartSpan starts a span on the service tracer
func (t *Telemetry) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// GetMeter returns the service meter
func (t *Telemetry) GetMeter() metric.Meter {
	return t.meter
}

type contextKey struct{}

// WithTelemetry stores tel in ctx
func WithTelemetry(ctx context.Context, tel *Telemetry) context.Context {
	return context.WithValue(ctx, contextKey{}, tel)
}

// FromContext returns the Telemetry stored in ctx, or nil
func FromContext(ctx context.Context) *Telemetry {
	tel, _ := ctx.Value(contextKey{}).(*Telemetry)
	return tel
}

// StartSpan starts a span on the tracer carried by ctx, falling back to the
// global provider
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tel := FromContext(ctx); tel != nil {
		return tel.StartSpan(ctx, name, opts...)
	}
	return otel.Tracer(OrchestratorServiceConfig.ServiceName).Start(ctx, name, opts...)
}
