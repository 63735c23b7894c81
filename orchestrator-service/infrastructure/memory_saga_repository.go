package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"github.com/tidwall/btree"
)

var _ domain.SagaRepository = (*MemorySagaRepository)(nil)

// MemorySagaRepository is an in-process ledger. Sagas are indexed by creation
// time so the watchdog scan walks only the sagas older than its cutoff.
type MemorySagaRepository struct {
	mux       sync.RWMutex
	byID      *btree.Map[models.ID, *domain.SagaTransaction]
	byCreated *btree.Map[string, models.ID]
}

// NewMemorySagaRepository creates an empty ledger
func NewMemorySagaRepository() *MemorySagaRepository {
	return &MemorySagaRepository{
		byID:      btree.NewMap[models.ID, *domain.SagaTransaction](10),
		byCreated: btree.NewMap[string, models.ID](10),
	}
}

func createdKey(createdAt time.Time, id models.ID) string {
	return fmt.Sprintf("%020d|%s", createdAt.UnixNano(), id)
}

// Save inserts or replaces a saga with an optimistic version check
func (r *MemorySagaRepository) Save(_ context.Context, saga *domain.SagaTransaction) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	stored, exists := r.byID.Get(saga.ID)

	if saga.IsNew() {
		if exists {
			return errors.Wrapf(domain.ErrVersionConflict, "saga %s already exists", saga.ID)
		}
		if active, ok := r.activeSagaFor(saga.OrderID); ok {
			return errors.Wrapf(domain.ErrActiveSagaExists, "order %s has saga %s", saga.OrderID, active)
		}

		saga.Version = models.NewVersion()
		r.byID.Set(saga.ID, cloneSaga(saga))
		r.byCreated.Set(createdKey(saga.Timestamps.CreatedAt, saga.ID), saga.ID)
		return nil
	}

	if !exists {
		return errors.Wrapf(domain.ErrSagaNotFound, "saga %s", saga.ID)
	}
	if stored.Version != saga.Version {
		return errors.Wrapf(domain.ErrVersionConflict, "saga %s at version %d, expected %d",
			saga.ID, stored.Version.Value, saga.Version.Value)
	}

	saga.Version = saga.Version.Next()
	r.byID.Set(saga.ID, cloneSaga(saga))
	return nil
}

// activeSagaFor returns the non-terminal saga of the order, if any. Callers
// hold the lock.
func (r *MemorySagaRepository) activeSagaFor(orderID models.ID) (models.ID, bool) {
	var active models.ID
	r.byID.Scan(func(id models.ID, saga *domain.SagaTransaction) bool {
		if saga.OrderID == orderID && !saga.Status.IsTerminal() {
			active = id
			return false
		}
		return true
	})
	return active, !active.IsZero()
}

// FindByID returns a copy of the stored saga
func (r *MemorySagaRepository) FindByID(_ context.Context, id models.ID) (*domain.SagaTransaction, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	saga, ok := r.byID.Get(id)
	if !ok {
		return nil, errors.Wrapf(domain.ErrSagaNotFound, "saga %s", id)
	}
	return cloneSaga(saga), nil
}

// FindByStatusBefore returns sagas with the status created before the
// cutoff, oldest first
func (r *MemorySagaRepository) FindByStatusBefore(_ context.Context, status domain.SagaStatus, before time.Time) ([]*domain.SagaTransaction, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	cutoff := createdKey(before, "")
	var out []*domain.SagaTransaction

	r.byCreated.Scan(func(key string, id models.ID) bool {
		if key >= cutoff {
			return false
		}
		if saga, ok := r.byID.Get(id); ok && saga.Status == status {
			out = append(out, cloneSaga(saga))
		}
		return true
	})

	return out, nil
}

// FindByOrderID returns every saga for the order, oldest first
func (r *MemorySagaRepository) FindByOrderID(_ context.Context, orderID models.ID) ([]*domain.SagaTransaction, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	var out []*domain.SagaTransaction
	r.byCreated.Scan(func(_ string, id models.ID) bool {
		if saga, ok := r.byID.Get(id); ok && saga.OrderID == orderID {
			out = append(out, cloneSaga(saga))
		}
		return true
	})

	return out, nil
}

// List returns sagas newest first
func (r *MemorySagaRepository) List(_ context.Context, filter domain.SagaFilter) ([]*domain.SagaTransaction, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	var out []*domain.SagaTransaction
	r.byCreated.Reverse(func(_ string, id models.ID) bool {
		saga, ok := r.byID.Get(id)
		if !ok || (filter.Status != "" && saga.Status != filter.Status) {
			return true
		}

		out = append(out, cloneSaga(saga))
		return filter.Limit <= 0 || len(out) < filter.Limit
	})

	return out, nil
}

func cloneSaga(saga *domain.SagaTransaction) *domain.SagaTransaction {
	c := *saga
	if saga.CompletedAt != nil {
		completedAt := *saga.CompletedAt
		c.CompletedAt = &completedAt
	}
	return &c
}
