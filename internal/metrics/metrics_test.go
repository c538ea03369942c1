package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := New(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			out[md.Name] = md.Data
		}
	}
	return out
}

func TestMetrics_OrderCreatedCountsAndRevenue(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.OrderCreated(ctx, "COD", decimal.RequireFromString("100.00"))
	m.OrderCreated(ctx, "COD", decimal.RequireFromString("50.50"))

	got := collect(t, reader)

	orders, ok := got["orders_created_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, orders.DataPoints, 1)
	assert.Equal(t, int64(2), orders.DataPoints[0].Value)

	revenue, ok := got["revenue_total"].(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 150.5, revenue.DataPoints[0].Value, 0.001)
}

func TestMetrics_PaymentTransitionAttributes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.PaymentTransition(ctx, "PENDING", "PAID")
	m.PaymentTransition(ctx, "PENDING", "FAILED")
	m.PaymentTransition(ctx, "PENDING", "PAID")

	got := collect(t, reader)
	sum, ok := got["payment_status_transitions_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func TestMetrics_HTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.HTTPRequest(context.Background(), "GET", "/orders/:id", 200, 12*time.Millisecond)

	got := collect(t, reader)
	hist, ok := got["http.server.request.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated(context.Background(), "UPI", decimal.NewFromInt(1))
		m.OrderExpired(context.Background())
		m.ReservationFailed(context.Background())
		m.HTTPRequest(context.Background(), "GET", "/", 200, time.Millisecond)
	})
}

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	mp, err := NewProvider(context.Background(), ProviderConfig{ServiceName: "x"})
	require.NoError(t, err)
	assert.Nil(t, mp)
}
