package application

import (
	"github.com/draftea/order-saga/orchestrator-service/domain"
)

// SagaMetricsResponse represents the saga counters and rates
type SagaMetricsResponse struct {
	TotalStarted      int64   `json:"totalStarted"`
	TotalCompleted    int64   `json:"totalCompleted"`
	TotalFailed       int64   `json:"totalFailed"`
	TotalCompensated  int64   `json:"totalCompensated"`
	AverageDurationMs float64 `json:"averageDurationMs"`
	SuccessRate       float64 `json:"successRate"`
	FailureRate       float64 `json:"failureRate"`
}

// GetSagaMetrics use case
type GetSagaMetrics struct {
	metrics domain.MetricsRecorder
}

// NewGetSagaMetrics creates a new GetSagaMetrics use case
func NewGetSagaMetrics(metrics domain.MetricsRecorder) *GetSagaMetrics {
	return &GetSagaMetrics{metrics: metrics}
}

// Execute executes the get saga metrics use case
func (uc *GetSagaMetrics) Execute() *SagaMetricsResponse {
	snapshot := uc.metrics.Snapshot()

	return &SagaMetricsResponse{
		TotalStarted:      snapshot.TotalStarted,
		TotalCompleted:    snapshot.TotalCompleted,
		TotalFailed:       snapshot.TotalFailed,
		TotalCompensated:  snapshot.TotalCompensated,
		AverageDurationMs: float64(snapshot.AverageDuration.Microseconds()) / 1000,
		SuccessRate:       snapshot.SuccessRate,
		FailureRate:       snapshot.FailureRate,
	}
}
