package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitMetrics_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := InitMetrics(context.Background(), MetricConfig{ServiceName: "twitarr"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m, err := NewMetrics("twitarr-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRebuild(ctx, "ok")
	m.RecordRebuild(ctx, "failed")
	m.RecordInvariantViolation(ctx)
	m.RecordLease(ctx, "conflict")
	m.RecordPartialApply(ctx, "block")
	m.RecordPageLatency(ctx, 5*time.Millisecond, "ok")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		names[md.Name] = true
	}
	for _, want := range []string{
		"relation_cache_rebuilds_total",
		"relation_cache_invariant_violations_total",
		"relation_lease_acquisitions_total",
		"relation_partial_block_writes_total",
		"thread_page_duration_seconds",
	} {
		assert.True(t, names[want], want)
	}
}
