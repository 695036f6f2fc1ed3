package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func Test_NewMeterProvider(t *testing.T) {
	// given
	registry := prometheus.NewRegistry()

	// when
	mp, err := NewMeterProvider("test-service", registry)

	// then
	require.NoError(t, err)
	require.NotNil(t, mp)
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()
	assert.Same(t, mp, otel.GetMeterProvider(), "Provider should be installed globally")

	// counters created through the provider are visible to a Prometheus scrape
	counter, err := mp.Meter("test").Int64Counter("purchases_completed")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	families, err := registry.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() == "purchases_completed_total" {
			found = true
			require.Len(t, family.GetMetric(), 1)
			assert.Equal(t, float64(1), family.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "Counter should appear in the scrape output")
}
