package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Saga signal names
const (
	SagaStarted     = "saga_started_total"
	SagaCompleted   = "saga_completed_total"
	SagaFailed      = "saga_failed_total"
	SagaCompensated = "saga_compensated_total"
	SagaDuration    = "saga_duration_seconds"
)

var sagaCounterDescriptions = map[string]string{
	SagaStarted:     "Total number of sagas started",
	SagaCompleted:   "Total number of sagas completed successfully",
	SagaFailed:      "Total number of sagas failed",
	SagaCompensated: "Total number of sagas compensated",
}

// SagaSnapshot is a point-in-time view of the saga counters
type SagaSnapshot struct {
	TotalStarted     int64
	TotalCompleted   int64
	TotalFailed      int64
	TotalCompensated int64
	AverageDuration  time.Duration
	// SuccessRate and FailureRate are percentages of started sagas
	SuccessRate float64
	FailureRate float64
}

// SagaMetrics records saga counters and durations to OpenTelemetry and keeps
// in-process totals so a snapshot can be served without querying the backend
type SagaMetrics struct {
	counters  map[string]metric.Int64Counter
	durations metric.Float64Histogram

	started       atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	compensated   atomic.Int64
	durationCount atomic.Int64
	durationTotal atomic.Int64
}

// NewSagaMetrics creates the saga instruments on the given meter. A nil meter
// falls back to the global meter provider.
func NewSagaMetrics(meter metric.Meter) (*SagaMetrics, error) {
	if meter == nil {
		meter = otel.Meter(OrchestratorServiceConfig.ServiceName)
	}

	m := &SagaMetrics{
		counters: make(map[string]metric.Int64Counter, len(sagaCounterDescriptions)),
	}

	for name, description := range sagaCounterDescriptions {
		counter, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			return nil, err
		}
		m.counters[name] = counter
	}

	durations, err := meter.Float64Histogram(SagaDuration,
		metric.WithDescription("Saga execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	m.durations = durations

	return m, nil
}

// Incr adds one to the named counter. Unknown names are ignored.
func (m *SagaMetrics) Incr(ctx context.Context, name string) {
	counter, ok := m.counters[name]
	if !ok {
		return
	}
	counter.Add(ctx, 1)

	switch name {
	case SagaStarted:
		m.started.Add(1)
	case SagaCompleted:
		m.completed.Add(1)
	case SagaFailed:
		m.failed.Add(1)
	case SagaCompensated:
		m.compensated.Add(1)
	}
}

// ObserveDuration records one saga duration. Negative values are clamped to zero.
func (m *SagaMetrics) ObserveDuration(ctx context.Context, name string, d time.Duration) {
	if name != SagaDuration {
		return
	}
	if d < 0 {
		d = 0
	}

	m.durations.Record(ctx, d.Seconds())
	m.durationCount.Add(1)
	m.durationTotal.Add(int64(d))
}

// Snapshot returns the current totals
func (m *SagaMetrics) Snapshot() SagaSnapshot {
	s := SagaSnapshot{
		TotalStarted:     m.started.Load(),
		TotalCompleted:   m.completed.Load(),
		TotalFailed:      m.failed.Load(),
		TotalCompensated: m.compensated.Load(),
	}

	if count := m.durationCount.Load(); count > 0 {
		s.AverageDuration = time.Duration(m.durationTotal.Load() / count)
	}

	if s.TotalStarted > 0 {
		started := float64(s.TotalStarted)
		s.SuccessRate = float64(s.TotalCompleted) / started * 100
		s.FailureRate = float64(s.TotalFailed+s.TotalCompensated) / started * 100
	}

	return s
}
