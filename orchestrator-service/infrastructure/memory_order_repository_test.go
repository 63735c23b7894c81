package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, customerID string, createdAt time.Time) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(customerID, "product-1", 2, models.NewMoney(2500, "USD"), createdAt)
	require.NoError(t, err)
	return order
}

func TestMemoryOrderRepository_Save(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		prepare       func(t *testing.T, repo *MemoryOrderRepository) *domain.Order
		expectedErr   error
		expectVersion int
	}{
		{
			name: "insert",
			prepare: func(t *testing.T, repo *MemoryOrderRepository) *domain.Order {
				return newTestOrder(t, "customer-1", baseTime)
			},
			expectVersion: 1,
		},
		{
			name: "update bumps version",
			prepare: func(t *testing.T, repo *MemoryOrderRepository) *domain.Order {
				order := newTestOrder(t, "customer-1", baseTime)
				require.NoError(t, repo.Save(ctx, order))
				_, err := order.Cancel(baseTime.Add(time.Second))
				require.NoError(t, err)
				return order
			},
			expectVersion: 2,
		},
		{
			name: "duplicate insert",
			prepare: func(t *testing.T, repo *MemoryOrderRepository) *domain.Order {
				order := newTestOrder(t, "customer-1", baseTime)
				require.NoError(t, repo.Save(ctx, order))
				dup := *order
				dup.Version = models.Version{}
				return &dup
			},
			expectedErr: domain.ErrVersionConflict,
		},
		{
			name: "stale update",
			prepare: func(t *testing.T, repo *MemoryOrderRepository) *domain.Order {
				order := newTestOrder(t, "customer-1", baseTime)
				require.NoError(t, repo.Save(ctx, order))
				stale := *order
				require.NoError(t, repo.Save(ctx, order))
				return &stale
			},
			expectedErr: domain.ErrVersionConflict,
		},
		{
			name: "update of unknown order",
			prepare: func(t *testing.T, repo *MemoryOrderRepository) *domain.Order {
				order := newTestOrder(t, "customer-1", baseTime)
				order.Version = models.NewVersion()
				return order
			},
			expectedErr: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryOrderRepository()
			order := tt.prepare(t, repo)

			err := repo.Save(ctx, order)

			if tt.expectedErr != nil {
				assert.True(t, errors.Is(err, tt.expectedErr), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectVersion, order.Version.Value)

			stored, err := repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, order.Status, stored.Status)
			assert.Equal(t, tt.expectVersion, stored.Version.Value)
		})
	}
}

func TestMemoryOrderRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	first := newTestOrder(t, "customer-1", baseTime)
	second := newTestOrder(t, "customer-1", baseTime.Add(time.Minute))
	other := newTestOrder(t, "customer-2", baseTime.Add(2*time.Minute))
	for _, order := range []*domain.Order{first, second, other} {
		require.NoError(t, repo.Save(ctx, order))
	}

	_, err := other.Cancel(baseTime.Add(3 * time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	byCustomer, err := repo.FindByCustomerID(ctx, "customer-1")
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, second.ID, byCustomer[0].ID)
	assert.Equal(t, first.ID, byCustomer[1].ID)

	cancelled, err := repo.FindByStatus(ctx, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, other.ID, cancelled[0].ID)

	none, err := repo.FindByCustomerID(ctx, "customer-3")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.FindByID(ctx, models.GenerateUUID())
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}
