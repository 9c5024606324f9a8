package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "create", 200, 3*time.Millisecond)
	m.Record(ctx, "create", 200, 4*time.Millisecond)
	m.Record(ctx, "delete", 404, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var counter metricdata.Sum[int64]
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name == "tcpusers.requests" {
			counter = md.Data.(metricdata.Sum[int64])
		}
	}
	require.Len(t, counter.DataPoints, 2)

	totals := map[string]int64{}
	for _, dp := range counter.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("route"))
		totals[route.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), totals["create"])
	assert.Equal(t, int64(1), totals["delete"])
}

func TestMetrics_NilRecordIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Record(context.Background(), "create", 200, time.Millisecond)
	})
}
