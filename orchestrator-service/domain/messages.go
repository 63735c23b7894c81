package domain

import (
	"time"

	"github.com/draftea/order-saga/shared/models"
)

// Inventory operations
const (
	InventoryOperationReserve = "RESERVE"
	InventoryOperationRelease = "RELEASE"
)

// PaymentRequest asks the payment participant to charge the customer
type PaymentRequest struct {
	SagaID        models.ID    `json:"sagaId"`
	OrderID       models.ID    `json:"orderId"`
	CustomerID    string       `json:"customerId"`
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"paymentMethod"`
	RequestedAt   time.Time    `json:"requestedAt"`
}

// InventoryRequest asks the inventory participant to reserve or release stock
type InventoryRequest struct {
	SagaID      models.ID `json:"sagaId"`
	OrderID     models.ID `json:"orderId"`
	ProductID   string    `json:"productId"`
	Quantity    int       `json:"quantity"`
	Operation   string    `json:"operation"`
	RequestedAt time.Time `json:"requestedAt"`
}

// ShippingRequest asks the shipping participant to arrange delivery
type ShippingRequest struct {
	SagaID          models.ID `json:"sagaId"`
	OrderID         models.ID `json:"orderId"`
	CustomerID      string    `json:"customerId"`
	ShippingAddress string    `json:"shippingAddress"`
	ShippingMethod  string    `json:"shippingMethod"`
	RequestedAt     time.Time `json:"requestedAt"`
}

// CompensationRequest asks a participant to undo its part of the saga
type CompensationRequest struct {
	SagaID           models.ID              `json:"sagaId"`
	OrderID          models.ID              `json:"orderId"`
	CompensationType CompensationType       `json:"compensationType"`
	CompensationData map[string]interface{} `json:"compensationData"`
	RequestedAt      time.Time              `json:"requestedAt"`
	Reason           string                 `json:"reason"`
}

// PaymentResponse is the payment participant's outcome
type PaymentResponse struct {
	SagaID          models.ID     `json:"sagaId" validate:"required"`
	OrderID         models.ID     `json:"orderId"`
	TransactionID   string        `json:"transactionId,omitempty"`
	Successful      bool          `json:"successful"`
	ErrorMessage    string        `json:"errorMessage,omitempty"`
	ErrorCode       string        `json:"errorCode,omitempty"`
	ProcessedAmount *models.Money `json:"processedAmount,omitempty"`
	ProcessedAt     *time.Time    `json:"processedAt,omitempty"`
}

// InventoryResponse is the inventory participant's outcome
type InventoryResponse struct {
	SagaID            models.ID  `json:"sagaId" validate:"required"`
	OrderID           models.ID  `json:"orderId"`
	ProductID         string     `json:"productId"`
	RequestedQuantity int        `json:"requestedQuantity"`
	ReservedQuantity  int        `json:"reservedQuantity"`
	Successful        bool       `json:"successful"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ReservationID     string     `json:"reservationId,omitempty"`
	ProcessedAt       *time.Time `json:"processedAt,omitempty"`
}

// ShippingResponse is the shipping participant's outcome
type ShippingResponse struct {
	SagaID            models.ID  `json:"sagaId" validate:"required"`
	OrderID           models.ID  `json:"orderId"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	Successful        bool       `json:"successful"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ShippingProvider  string     `json:"shippingProvider,omitempty"`
	ScheduledDelivery *time.Time `json:"scheduledDelivery,omitempty"`
	ProcessedAt       *time.Time `json:"processedAt,omitempty"`
}

// OrderEvent is published on the order events channel on every order transition
type OrderEvent struct {
	EventID     models.ID    `json:"eventId"`
	EventType   string       `json:"eventType"`
	OrderID     models.ID    `json:"orderId"`
	CustomerID  string       `json:"customerId"`
	ProductID   string       `json:"productId"`
	Quantity    int          `json:"quantity"`
	Amount      models.Money `json:"amount"`
	OrderStatus OrderStatus  `json:"orderStatus"`
	EventTime   time.Time    `json:"eventTime"`
	Source      string       `json:"source"`
}
