package metrics_test

import (
	"context"
	"faleproxy/pkg/metrics"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
)

func TestNewMeterProvider_ExportsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := mp.Meter(metrics.InstrumentationName).Int64Counter("proxy_test")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "proxy_test_total" {
			found = true
			require.InDelta(t, 3, f.GetMetric()[0].GetCounter().GetValue(), 0)
		}
	}
	require.True(t, found, "counter should be exported to the registry")
}

func TestNewMeterProvider_EscapesDottedNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	meter := mp.Meter(metrics.InstrumentationName)
	counter, err := meter.Int64Counter("page.hits")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	size, err := meter.Int64Histogram("page.size", metric.WithUnit("By"))
	require.NoError(t, err)
	size.Record(context.Background(), 512)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		require.NotContains(t, f.GetName(), ".")
		names[f.GetName()] = true
	}
	require.True(t, names["page_hits_total"], "got %v", names)
	require.True(t, names["page_size_bytes"], "got %v", names)
}
