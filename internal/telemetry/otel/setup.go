// Package otel wires OpenTelemetry for the API server and the worker: OTLP gRPC exporters for traces,
// metrics and logs, and an EventEmitter that turns audit and request events into log records.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.uber.org/zap"

	"civic-connect/backend/internal/logger"
)

const metricInterval = 10 * time.Second

// Options configures NewProviders.
type Options struct {
	// Endpoint is the collector address; empty returns no-op providers.
	Endpoint    string
	ServiceName string
	Environment string
	// Insecure forces plaintext even for https endpoints (OTEL_EXPORTER_OTLP_INSECURE).
	Insecure bool
}

// Providers holds the OpenTelemetry providers and a shutdown function that flushes them.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// NewProviders builds trace, metric and log providers exporting over OTLP gRPC to opts.Endpoint.
// The endpoint may be host:port or a URL; any path is ignored. https endpoints use TLS unless
// opts.Insecure is set. An empty endpoint yields local providers that export nothing.
func NewProviders(ctx context.Context, opts Options, log *zap.Logger) (*Providers, error) {
	log = logger.OrNop(log)
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	target, useTLS, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	res, err := newResource(opts)
	if err != nil {
		return nil, err
	}
	exp := exporterSettings{target: target, insecure: opts.Insecure || !useTLS}

	var stack shutdownStack
	tp, err := exp.tracerProvider(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	stack.push(tp.Shutdown)

	mp, err := exp.meterProvider(ctx, res)
	if err != nil {
		_ = stack.run(ctx, log)
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	stack.push(mp.Shutdown)

	lp, err := exp.loggerProvider(ctx, res)
	if err != nil {
		_ = stack.run(ctx, log)
		return nil, fmt.Errorf("log exporter: %w", err)
	}
	stack.push(lp.Shutdown)

	log.Info("otel: exporting via OTLP", zap.String("endpoint", target), zap.Bool("insecure", exp.insecure))
	return &Providers{
		TracerProvider: tp,
		MeterProvider:  mp,
		LoggerProvider: lp,
		Shutdown:       func(ctx context.Context) error { return stack.run(ctx, log) },
	}, nil
}

type exporterSettings struct {
	target   string
	insecure bool
}

func (e exporterSettings) tracerProvider(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(e.target)}
	if e.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
}

func (e exporterSettings) meterProvider(ctx context.Context, res *resource.Resource) (*metric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(e.target)}
	if e.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	reader := metric.NewPeriodicReader(exp, metric.WithInterval(metricInterval))
	return metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader)), nil
}

func (e exporterSettings) loggerProvider(ctx context.Context, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(e.target)}
	if e.insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)), sdklog.WithResource(res)), nil
}

// shutdownStack runs shutdown funcs in reverse registration order, at most once each.
type shutdownStack struct {
	fns []func(context.Context) error
}

func (s *shutdownStack) push(fn func(context.Context) error) { s.fns = append(s.fns, fn) }

func (s *shutdownStack) run(ctx context.Context, log *zap.Logger) error {
	log = logger.OrNop(log)
	var errs []error
	for i := len(s.fns) - 1; i >= 0; i-- {
		if err := s.fns[i](ctx); err != nil {
			log.Warn("otel: shutdown", zap.Error(err))
			errs = append(errs, err)
		}
	}
	s.fns = nil
	return errors.Join(errs...)
}

// parseEndpoint normalizes endpoint to host:port. tls is true for https URLs.
func parseEndpoint(endpoint string) (target string, tls bool, err error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func newResource(opts Options) (*resource.Resource, error) {
	name := opts.ServiceName
	if name == "" {
		name = "civic-api"
	}
	attrs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(name),
		semconv.DeploymentEnvironmentNameKey.String(opts.Environment),
	)
	return resource.Merge(resource.Default(), attrs)
}

// SetGlobal sets the global TracerProvider and MeterProvider so instrumentation (otel.Tracer, otel.Meter) uses them.
// It does not set a global LoggerProvider; pass LoggerProvider to NewEventEmitter instead.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}
