package application

import (
	"context"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

const defaultSagaListLimit = 100

// SagaStatusResponse represents the state of a saga
type SagaStatusResponse struct {
	SagaID           string     `json:"sagaId"`
	OrderID          string     `json:"orderId"`
	Status           string     `json:"status"`
	CurrentStep      string     `json:"currentStep"`
	CompensationStep string     `json:"compensationStep,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	RetryCount       int        `json:"retryCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

func newSagaStatusResponse(saga *domain.SagaTransaction) *SagaStatusResponse {
	return &SagaStatusResponse{
		SagaID:           saga.ID.String(),
		OrderID:          saga.OrderID.String(),
		Status:           saga.Status.String(),
		CurrentStep:      saga.CurrentStep.String(),
		CompensationStep: saga.CompensationStep.String(),
		ErrorMessage:     saga.ErrorMessage,
		RetryCount:       saga.RetryCount,
		CreatedAt:        saga.Timestamps.CreatedAt,
		UpdatedAt:        saga.Timestamps.UpdatedAt,
		CompletedAt:      saga.CompletedAt,
	}
}

// GetSagaStatus use case
type GetSagaStatus struct {
	sagaRepository domain.SagaRepository
}

// NewGetSagaStatus creates a new GetSagaStatus use case
func NewGetSagaStatus(sagaRepository domain.SagaRepository) *GetSagaStatus {
	return &GetSagaStatus{sagaRepository: sagaRepository}
}

// Execute executes the get saga status use case
func (uc *GetSagaStatus) Execute(ctx context.Context, sagaID string) (*SagaStatusResponse, error) {
	id, err := models.NewID(sagaID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid saga ID")
	}

	saga, err := uc.sagaRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return newSagaStatusResponse(saga), nil
}

// ListSagasQuery represents the query to list sagas
type ListSagasQuery struct {
	Status string
	Limit  int
}

// ListSagas use case
type ListSagas struct {
	sagaRepository domain.SagaRepository
}

// NewListSagas creates a new ListSagas use case
func NewListSagas(sagaRepository domain.SagaRepository) *ListSagas {
	return &ListSagas{sagaRepository: sagaRepository}
}

// Execute executes the list sagas use case
func (uc *ListSagas) Execute(ctx context.Context, query *ListSagasQuery) ([]*SagaStatusResponse, error) {
	filter := domain.SagaFilter{Limit: query.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultSagaListLimit
	}

	if query.Status != "" {
		status, err := domain.ParseSagaStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	sagas, err := uc.sagaRepository.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sagas")
	}

	responses := make([]*SagaStatusResponse, len(sagas))
	for i, saga := range sagas {
		responses[i] = newSagaStatusResponse(saga)
	}

	return responses, nil
}
