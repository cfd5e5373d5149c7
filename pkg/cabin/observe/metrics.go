// Package observe records OpenTelemetry metrics for the setting engine.
// Tests should pass their own metric.MeterProvider to NewMetrics.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/cognicore/cabin"

// Metrics holds the engine's instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// Utterances counts processed utterances by intent and resulting stage.
	Utterances metric.Int64Counter

	// Changes counts resolved setting changes by operation status.
	Changes metric.Int64Counter

	// Statuses counts status requests by operation status.
	Statuses metric.Int64Counter

	// JournalErrors counts records the store failed to append.
	JournalErrors metric.Int64Counter

	// ProcessDuration tracks the time spent filtering one utterance.
	ProcessDuration metric.Float64Histogram
}

// filtering is pure CPU work; buckets are in seconds.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates the instruments on mp. A nil mp uses the global
// provider, which records nothing until one is installed.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Utterances, err = m.Int64Counter("cabin.utterances",
		metric.WithDescription("Processed utterances by intent and stage."),
	); err != nil {
		return nil, err
	}
	if met.Changes, err = m.Int64Counter("cabin.changes",
		metric.WithDescription("Resolved setting changes by operation status."),
	); err != nil {
		return nil, err
	}
	if met.Statuses, err = m.Int64Counter("cabin.statuses",
		metric.WithDescription("Status requests by operation status."),
	); err != nil {
		return nil, err
	}
	if met.JournalErrors, err = m.Int64Counter("cabin.journal.errors",
		metric.WithDescription("Records that could not be journaled."),
	); err != nil {
		return nil, err
	}
	if met.ProcessDuration, err = m.Float64Histogram("cabin.process.duration",
		metric.WithDescription("Latency of filtering one utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordUtterance records one processed utterance.
func (m *Metrics) RecordUtterance(ctx context.Context, intent, stage string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("stage", stage),
	)
	m.Utterances.Add(ctx, 1, attrs)
	m.ProcessDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordChange records one resolved change.
func (m *Metrics) RecordChange(ctx context.Context, status string) {
	m.Changes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStatus records one status request.
func (m *Metrics) RecordStatus(ctx context.Context, status string) {
	m.Statuses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordJournalError records a failed append.
func (m *Metrics) RecordJournalError(ctx context.Context) {
	m.JournalErrors.Add(ctx, 1)
}
