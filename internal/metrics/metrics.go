package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	OrdersCreated       metric.Int64Counter
	OrdersExpired       metric.Int64Counter
	OrdersCancelled     metric.Int64Counter
	ReservationFailures metric.Int64Counter
	PaymentTransitions  metric.Int64Counter
	RevenueTotal        metric.Float64Counter
}

type ProviderConfig struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
	Interval    time.Duration
}

// NewProvider returns an OTLP/HTTP meter provider, or nil when no endpoint is configured.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*sdkmetric.MeterProvider, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// NoopMeter is used when metrics export is disabled.
func NoopMeter() metric.Meter {
	return noop.NewMeterProvider().Meter("shopsphere")
}

func New(meter metric.Meter) (*Metrics, error) {
	buckets := []float64{2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	var m Metrics
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...)); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}
	if m.OrdersCreated, err = meter.Int64Counter("orders_created_total",
		metric.WithDescription("Orders created"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}
	if m.OrdersExpired, err = meter.Int64Counter("orders_expired_total",
		metric.WithDescription("Orders expired by the reaper"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create expired counter: %w", err)
	}
	if m.OrdersCancelled, err = meter.Int64Counter("orders_cancelled_total",
		metric.WithDescription("Orders cancelled"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create cancelled counter: %w", err)
	}
	if m.ReservationFailures, err = meter.Int64Counter("stock_reservation_failures_total",
		metric.WithDescription("Stock reservations rejected for insufficient quantity"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create reservation failures counter: %w", err)
	}
	if m.PaymentTransitions, err = meter.Int64Counter("payment_status_transitions_total",
		metric.WithDescription("Payment status changes"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create payment transitions counter: %w", err)
	}
	if m.RevenueTotal, err = meter.Float64Counter("revenue_total",
		metric.WithDescription("Sum of created order totals"), metric.WithUnit("INR")); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	return &m, nil
}

func (m *Metrics) OrderCreated(ctx context.Context, method string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", method)))
	m.RevenueTotal.Add(ctx, total.InexactFloat64())
}

func (m *Metrics) OrderExpired(ctx context.Context) {
	if m == nil {
		return
	}
	m.OrdersExpired.Add(ctx, 1)
}

func (m *Metrics) OrderCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.OrdersCancelled.Add(ctx, 1)
}

func (m *Metrics) ReservationFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ReservationFailures.Add(ctx, 1)
}

func (m *Metrics) PaymentTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.PaymentTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) HTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}
