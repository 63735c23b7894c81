package domain

import (
	"strings"
	"time"

	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
)

// ParseOrderStatus parses a status name, case-insensitive
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusShipped:
		return status, nil
	}
	return "", errors.Wrapf(ErrInvalidOrderStatus, "%q", s)
}

func (s OrderStatus) String() string {
	return string(s)
}

// Order lifecycle event types published on the order events channel
const (
	OrderCreatedEvent   = "ORDER_CREATED"
	OrderConfirmedEvent = "ORDER_CONFIRMED"
	OrderCancelledEvent = "ORDER_CANCELLED"
	OrderShippedEvent   = "ORDER_SHIPPED"
)

// Order is the business order a saga fulfils
type Order struct {
	ID         models.ID
	CustomerID string
	ProductID  string
	Quantity   int
	Amount     models.Money
	Status     OrderStatus
	Timestamps models.Timestamps
	Version    models.Version
}

// NewOrder creates a PENDING order
func NewOrder(customerID, productID string, quantity int, amount models.Money, now time.Time) (*Order, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}
	if productID == "" {
		return nil, errors.New("product ID is required")
	}
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}
	if amount.Currency == "" {
		return nil, errors.New("currency is required")
	}

	return &Order{
		ID:         models.GenerateUUID(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		Amount:     amount,
		Status:     OrderStatusPending,
		Timestamps: models.NewTimestampsAt(now),
	}, nil
}

// Confirm marks a pending order confirmed. It reports whether the status changed.
func (o *Order) Confirm(now time.Time) (bool, error) {
	switch o.Status {
	case OrderStatusConfirmed:
		return false, nil
	case OrderStatusPending:
		return o.moveTo(OrderStatusConfirmed, now), nil
	}
	return false, errors.Wrapf(ErrInvalidOrderTransition, "cannot confirm a %s order", o.Status)
}

// Cancel cancels an order that was not shipped. It reports whether the status changed.
func (o *Order) Cancel(now time.Time) (bool, error) {
	switch o.Status {
	case OrderStatusCancelled:
		return false, nil
	case OrderStatusPending, OrderStatusConfirmed:
		return o.moveTo(OrderStatusCancelled, now), nil
	}
	return false, errors.Wrapf(ErrInvalidOrderTransition, "cannot cancel a %s order", o.Status)
}

// Ship marks a live order shipped. It reports whether the status changed.
func (o *Order) Ship(now time.Time) (bool, error) {
	switch o.Status {
	case OrderStatusShipped:
		return false, nil
	case OrderStatusPending, OrderStatusConfirmed:
		return o.moveTo(OrderStatusShipped, now), nil
	}
	return false, errors.Wrapf(ErrInvalidOrderTransition, "cannot ship a %s order", o.Status)
}

func (o *Order) moveTo(status OrderStatus, now time.Time) bool {
	o.Status = status
	o.Timestamps = o.Timestamps.Touch(now)
	return true
}
