package domain

import (
	"testing"
	"time"

	"github.com/draftea/order-saga/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	tests := []struct {
		name          string
		customerID    string
		productID     string
		quantity      int
		amount        models.Money
		expectedError string
	}{
		{
			name:       "valid order",
			customerID: "customer-1",
			productID:  "product-1",
			quantity:   2,
			amount:     models.NewMoney(5000, "USD"),
		},
		{
			name:          "missing customer",
			productID:     "product-1",
			quantity:      1,
			amount:        models.NewMoney(5000, "USD"),
			expectedError: "customer ID is required",
		},
		{
			name:          "missing product",
			customerID:    "customer-1",
			quantity:      1,
			amount:        models.NewMoney(5000, "USD"),
			expectedError: "product ID is required",
		},
		{
			name:          "zero quantity",
			customerID:    "customer-1",
			productID:     "product-1",
			amount:        models.NewMoney(5000, "USD"),
			expectedError: "quantity must be positive",
		},
		{
			name:          "zero amount",
			customerID:    "customer-1",
			productID:     "product-1",
			quantity:      1,
			amount:        models.NewMoney(0, "USD"),
			expectedError: "amount must be positive",
		},
		{
			name:          "missing currency",
			customerID:    "customer-1",
			productID:     "product-1",
			quantity:      1,
			amount:        models.NewMoney(100, ""),
			expectedError: "currency is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(tt.customerID, tt.productID, tt.quantity, tt.amount, testStart)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, order.ID)
			assert.Equal(t, OrderStatusPending, order.Status)
			assert.Equal(t, testStart, order.Timestamps.CreatedAt)
		})
	}
}

func TestOrder_Transitions(t *testing.T) {
	now := testStart.Add(time.Minute)

	tests := []struct {
		name            string
		from            OrderStatus
		apply           func(*Order) (bool, error)
		expectedStatus  OrderStatus
		expectedChanged bool
		expectedError   error
	}{
		{"confirm pending", OrderStatusPending, func(o *Order) (bool, error) { return o.Confirm(now) }, OrderStatusConfirmed, true, nil},
		{"confirm cancelled", OrderStatusCancelled, func(o *Order) (bool, error) { return o.Confirm(now) }, OrderStatusCancelled, false, ErrInvalidOrderTransition},
		{"cancel pending", OrderStatusPending, func(o *Order) (bool, error) { return o.Cancel(now) }, OrderStatusCancelled, true, nil},
		{"cancel confirmed", OrderStatusConfirmed, func(o *Order) (bool, error) { return o.Cancel(now) }, OrderStatusCancelled, true, nil},
		{"cancel cancelled is a no-op", OrderStatusCancelled, func(o *Order) (bool, error) { return o.Cancel(now) }, OrderStatusCancelled, false, nil},
		{"cancel shipped", OrderStatusShipped, func(o *Order) (bool, error) { return o.Cancel(now) }, OrderStatusShipped, false, ErrInvalidOrderTransition},
		{"ship pending", OrderStatusPending, func(o *Order) (bool, error) { return o.Ship(now) }, OrderStatusShipped, true, nil},
		{"ship shipped is a no-op", OrderStatusShipped, func(o *Order) (bool, error) { return o.Ship(now) }, OrderStatusShipped, false, nil},
		{"ship cancelled", OrderStatusCancelled, func(o *Order) (bool, error) { return o.Ship(now) }, OrderStatusCancelled, false, ErrInvalidOrderTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder("customer-1", "product-1", 1, models.NewMoney(100, "USD"), testStart)
			require.NoError(t, err)
			order.Status = tt.from

			changed, err := tt.apply(order)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedChanged, changed)
			assert.Equal(t, tt.expectedStatus, order.Status)
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}
