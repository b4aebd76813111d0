// Package observability sets up the process-wide slog logger and the OpenTelemetry trace
// and meter providers shared by the inventory binaries.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Trace exporters selectable through OTEL_TRACES_EXPORTER.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// Options controls logger and provider construction.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       slog.Level
	// LogFormat is "json" or "text".
	LogFormat     string
	TraceExporter string
	// SampleRatio in [0,1]; 1 samples every trace.
	SampleRatio float64
	// Output receives log lines and stdout spans. Defaults to os.Stdout.
	Output io.Writer
}

// Instruments bundles the runtime-wide observability dependencies.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Metrics is pull based; callers Collect from it when they need a snapshot.
	Metrics *sdkmetric.ManualReader
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, ENVIRONMENT, SERVICE_VERSION,
// OTEL_TRACES_EXPORTER and OTEL_TRACES_SAMPLER_ARG.
func OptionsFromEnv(serviceName string) (Options, error) {
	opts := Options{
		ServiceName:    serviceName,
		ServiceVersion: envOrDefault("SERVICE_VERSION", "dev"),
		Environment:    envOrDefault("ENVIRONMENT", "local"),
		LogFormat:      strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		TraceExporter:  strings.ToLower(envOrDefault("OTEL_TRACES_EXPORTER", ExporterOTLP)),
		SampleRatio:    1,
	}
	if err := opts.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return Options{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if raw := strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLER_ARG")); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return Options{}, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be a ratio between 0 and 1, got %q", raw)
		}
		opts.SampleRatio = ratio
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	switch o.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", o.LogFormat)
	}
	switch o.TraceExporter {
	case ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("OTEL_TRACES_EXPORTER must be otlp, stdout or none, got %q", o.TraceExporter)
	}
	return nil
}

// InitFromEnv is Init with OptionsFromEnv.
func InitFromEnv(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	opts, err := OptionsFromEnv(serviceName)
	if err != nil {
		return nil, nil, err
	}
	return Init(ctx, opts)
}

// Init installs the logger, tracer provider and meter provider as process defaults.
// The returned shutdown flushes pending spans and must run on exit.
func Init(ctx context.Context, opts Options) (*Instruments, func(context.Context) error, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	logger := newLogger(opts)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.ServiceVersion),
			attribute.String("deployment.environment", opts.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	}
	exporter, err := newSpanExporter(ctx, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	instruments := &Instruments{
		Logger:         logger,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Metrics:        reader,
	}
	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return instruments, shutdown, nil
}

// Tracer returns a named tracer from the configured provider.
func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

// Meter returns a named meter from the configured provider.
func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

func newLogger(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.LogLevel, AddSource: true}
	var handler slog.Handler
	if opts.LogFormat == "text" {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}
	logger := slog.New(handler).With(slog.String("service", opts.ServiceName))
	slog.SetDefault(logger)
	return logger
}

// newSpanExporter returns nil for ExporterNone. An OTLP exporter that cannot be built falls
// back to stdout.
func newSpanExporter(ctx context.Context, opts Options, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	switch opts.TraceExporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(opts.Output))
	}
	var otlpOpts []otlptracehttp.Option
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); endpoint != "" {
		otlpOpts = append(otlpOpts, otlptracehttp.WithEndpoint(endpoint))
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0" {
		otlpOpts = append(otlpOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, otlpOpts...)
	if err == nil {
		return exporter, nil
	}
	logger.Warn("failed to initialize OTLP trace exporter, falling back to stdout", slog.String("error", err.Error()))
	return stdouttrace.New(stdouttrace.WithWriter(opts.Output))
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
