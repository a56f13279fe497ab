package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mtga-analyzer/backend/internal/buildinfo"
	"mtga-analyzer/backend/internal/config"
)

const defaultExportInterval = 10 * time.Second

// Provider owns the OTLP exporters behind the global tracer and meter
// providers.
type Provider struct {
	conn *grpc.ClientConn
	tp   *sdktrace.TracerProvider
	mp   *sdkmetric.MeterProvider
}

// InitProvider installs global OTLP tracing and metrics for the analyzer.
// The collector connection is lazy, so an unreachable endpoint does not fail
// startup.
func InitProvider(ctx context.Context, cfg config.TelemetryConfig) (*Provider, error) {
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var dialOpts []grpc.DialOption
	if cfg.OTLPInsecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.OTLPEndpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialing collector %s: %w", cfg.OTLPEndpoint, err)
	}

	tp, err := newTracerProvider(ctx, conn, res, cfg.SampleRatio)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}
	mp, err := newMeterProvider(ctx, conn, res, cfg.ExportInterval)
	if err != nil {
		tp.Shutdown(ctx) //nolint:errcheck
		conn.Close()     //nolint:errcheck
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Warn("otel export failed", "endpoint", cfg.OTLPEndpoint, "err", err)
	}))

	return &Provider{conn: conn, tp: tp, mp: mp}, nil
}

// newResource describes this process from config and link-time build info.
// OTEL_RESOURCE_ATTRIBUTES entries are merged in; host attributes are opt-in.
func newResource(ctx context.Context, cfg config.TelemetryConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(buildinfo.Version),
		attribute.String("build.commit", buildinfo.Commit),
	}
	if cfg.ServiceNamespace != "" {
		attrs = append(attrs, semconv.ServiceNamespace(cfg.ServiceNamespace))
	}

	opts := []resource.Option{
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	}
	if cfg.HostAttributes {
		opts = append(opts, resource.WithHost())
	}

	res, err := resource.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building OTEL resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, ratio float64) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(ratio)),
	), nil
}

func newMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	if interval <= 0 {
		interval = defaultExportInterval
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	), nil
}

// sampler keeps ratio of root traces and follows the caller's decision
// for requests that arrive with a sampled parent.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Shutdown flushes pending spans and metrics, then closes the collector
// connection. Flush failures are logged rather than returned: a missing
// collector must not fail process exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	flushErr := errors.Join(p.mp.Shutdown(ctx), p.tp.Shutdown(ctx))
	if flushErr != nil {
		slog.WarnContext(ctx, "otel flush on shutdown failed", "err", flushErr)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("closing collector connection: %w", err)
	}
	return nil
}
