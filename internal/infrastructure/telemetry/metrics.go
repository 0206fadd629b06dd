package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records relationship-cache, lease and pagination instruments.
type Metrics struct {
	cacheRebuilds       metric.Int64Counter
	invariantViolations metric.Int64Counter
	leaseAcquisitions   metric.Int64Counter
	partialApplies      metric.Int64Counter
	pageLatency         metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider.
// meterName should typically be the service name.
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	rebuilds, err := meter.Int64Counter(
		"relation_cache_rebuilds_total",
		metric.WithDescription("Relationship cache entry rebuilds by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation_cache_rebuilds_total counter: %w", err)
	}

	violations, err := meter.Int64Counter(
		"relation_cache_invariant_violations_total",
		metric.WithDescription("Lookups for users missing from the relationship cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation_cache_invariant_violations_total counter: %w", err)
	}

	leases, err := meter.Int64Counter(
		"relation_lease_acquisitions_total",
		metric.WithDescription("Relationship lease acquisition attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation_lease_acquisitions_total counter: %w", err)
	}

	partial, err := meter.Int64Counter(
		"relation_partial_block_writes_total",
		metric.WithDescription("Block or unblock applications that stopped after writing some keys"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation_partial_block_writes_total counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"thread_page_duration_seconds",
		metric.WithDescription("Time taken to compute a thread page"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread_page_duration_seconds histogram: %w", err)
	}

	return &Metrics{
		cacheRebuilds:       rebuilds,
		invariantViolations: violations,
		leaseAcquisitions:   leases,
		partialApplies:      partial,
		pageLatency:         latency,
	}, nil
}

func (m *Metrics) RecordRebuild(ctx context.Context, status string) {
	m.cacheRebuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordInvariantViolation(ctx context.Context) {
	m.invariantViolations.Add(ctx, 1)
}

func (m *Metrics) RecordLease(ctx context.Context, outcome string) {
	m.leaseAcquisitions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordPartialApply(ctx context.Context, op string) {
	m.partialApplies.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) RecordPageLatency(ctx context.Context, duration time.Duration, status string) {
	m.pageLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}
