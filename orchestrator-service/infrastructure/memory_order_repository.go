package infrastructure

import (
	"context"
	"sort"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// MemoryOrderRepository is an in-process order store
type MemoryOrderRepository struct {
	orders *xsync.MapOf[models.ID, *domain.Order]
}

// NewMemoryOrderRepository creates an empty store
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: xsync.NewMapOf[models.ID, *domain.Order](),
	}
}

// Save inserts or replaces an order with an optimistic version check
func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	var saveErr error
	next := *order

	r.orders.Compute(order.ID, func(stored *domain.Order, loaded bool) (*domain.Order, bool) {
		switch {
		case order.Version.Value == 0 && loaded:
			saveErr = errors.Wrapf(domain.ErrVersionConflict, "order %s already exists", order.ID)
			return stored, false
		case order.Version.Value == 0:
			next.Version = models.NewVersion()
		case !loaded:
			saveErr = errors.Wrapf(domain.ErrOrderNotFound, "order %s", order.ID)
			return nil, true
		case stored.Version != order.Version:
			saveErr = errors.Wrapf(domain.ErrVersionConflict, "order %s at version %d, expected %d",
				order.ID, stored.Version.Value, order.Version.Value)
			return stored, false
		default:
			next.Version = order.Version.Next()
		}

		stored = &domain.Order{}
		*stored = next
		return stored, false
	})

	if saveErr != nil {
		return saveErr
	}

	order.Version = next.Version
	return nil
}

// FindByID returns a copy of the stored order
func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	order, ok := r.orders.Load(id)
	if !ok {
		return nil, errors.Wrapf(domain.ErrOrderNotFound, "order %s", id)
	}

	c := *order
	return &c, nil
}

// FindByCustomerID returns the customer's orders, newest first
func (r *MemoryOrderRepository) FindByCustomerID(_ context.Context, customerID string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.CustomerID == customerID }), nil
}

// FindByStatus returns the orders in status, newest first
func (r *MemoryOrderRepository) FindByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.Status == status }), nil
}

func (r *MemoryOrderRepository) filter(match func(*domain.Order) bool) []*domain.Order {
	var out []*domain.Order
	r.orders.Range(func(_ models.ID, order *domain.Order) bool {
		if match(order) {
			c := *order
			out = append(out, &c)
		}
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamps.CreatedAt.After(out[j].Timestamps.CreatedAt)
	})
	return out
}
