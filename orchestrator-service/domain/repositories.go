package domain

import (
	"context"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
)

// SagaFilter narrows a saga listing
type SagaFilter struct {
	Status SagaStatus
	Limit  int
}

// SagaRepository is the saga ledger.
//
// Save inserts a saga whose Version is zero and otherwise replaces the
// stored record only if it still carries saga.Version, returning
// ErrVersionConflict when it does not. On success saga.Version holds the
// new stored version.
type SagaRepository interface {
	Save(ctx context.Context, saga *SagaTransaction) error
	FindByID(ctx context.Context, id models.ID) (*SagaTransaction, error)
	FindByStatusBefore(ctx context.Context, status SagaStatus, before time.Time) ([]*SagaTransaction, error)
	FindByOrderID(ctx context.Context, orderID models.ID) ([]*SagaTransaction, error)
	List(ctx context.Context, filter SagaFilter) ([]*SagaTransaction, error)
}

// OrderRepository stores orders with the same versioning contract as SagaRepository
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Order, error)
	FindByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)
}

// OrderService is the order collaborator the orchestrator drives
type OrderService interface {
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	Cancel(ctx context.Context, id models.ID) (*Order, error)
	MarkShipped(ctx context.Context, id models.ID) (*Order, error)
}

// MetricsRecorder is the saga metrics sink
type MetricsRecorder interface {
	Incr(ctx context.Context, name string)
	ObserveDuration(ctx context.Context, name string, d time.Duration)
	Snapshot() telemetry.SagaSnapshot
}

// SagaJournal keeps an append-only record of the messages a saga emitted
type SagaJournal interface {
	AppendEvents(ctx context.Context, sagaID models.ID, evts []*events.Event) error
}
