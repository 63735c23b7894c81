package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/draftea/order-saga/orchestrator-service/application"
	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder *application.CreateOrder
	getOrder    *application.GetOrder
	listOrders  *application.ListOrders
	cancelOrder *application.CancelOrder
	validate    *validator.Validate
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	listOrders *application.ListOrders,
	cancelOrder *application.CancelOrder,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder: createOrder,
		getOrder:    getOrder,
		listOrders:  listOrders,
		cancelOrder: cancelOrder,
		validate:    newValidator(),
	}
}

// CreateOrder stores an order and starts its saga
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(&cmd); err != nil {
		http.Error(w, formatValidationError(err).Error(), http.StatusBadRequest)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	response, err := h.getOrder.Execute(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListByCustomer lists the orders of one customer
func (h *OrderHandlers) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	response, err := h.listOrders.ByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListByStatus lists the orders in one status
func (h *OrderHandlers) ListByStatus(w http.ResponseWriter, r *http.Request) {
	response, err := h.listOrders.ByStatus(r.Context(), chi.URLParam(r, "status"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// CancelOrder cancels an order that has no running saga
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if err := h.validate.Var(orderID, "required,uuid"); err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	response, err := h.cancelOrder.Execute(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/customer/{customerId}", h.ListByCustomer)
		r.Get("/status/{status}", h.ListByStatus)
		r.Get("/{orderId}", h.GetOrder)
		r.Post("/{orderId}/cancel", h.CancelOrder)
	})
}

// SagaHandlers exposes saga state and metrics
type SagaHandlers struct {
	getSagaStatus  *application.GetSagaStatus
	listSagas      *application.ListSagas
	getSagaMetrics *application.GetSagaMetrics
	validate       *validator.Validate
}

// NewSagaHandlers creates new saga handlers
func NewSagaHandlers(
	getSagaStatus *application.GetSagaStatus,
	listSagas *application.ListSagas,
	getSagaMetrics *application.GetSagaMetrics,
) *SagaHandlers {
	return &SagaHandlers{
		getSagaStatus:  getSagaStatus,
		listSagas:      listSagas,
		getSagaMetrics: getSagaMetrics,
		validate:       newValidator(),
	}
}

// GetSagaStatus returns the ledger record of one saga
func (h *SagaHandlers) GetSagaStatus(w http.ResponseWriter, r *http.Request) {
	sagaID := chi.URLParam(r, "sagaId")
	if err := h.validate.Var(sagaID, "required,uuid"); err != nil {
		http.Error(w, "Invalid saga ID", http.StatusBadRequest)
		return
	}

	response, err := h.getSagaStatus.Execute(r.Context(), sagaID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListSagas lists sagas, newest first
func (h *SagaHandlers) ListSagas(w http.ResponseWriter, r *http.Request) {
	query := &application.ListSagasQuery{
		Status: r.URL.Query().Get("status"),
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		query.Limit = n
	}

	response, err := h.listSagas.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetSagaMetrics returns the saga counters
func (h *SagaHandlers) GetSagaMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.getSagaMetrics.Execute())
}

// RegisterRoutes registers saga routes
func (h *SagaHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/sagas", func(r chi.Router) {
		r.Get("/", h.ListSagas)
		r.Get("/{sagaId}/status", h.GetSagaStatus)
	})
	r.Get("/api/metrics/saga", h.GetSagaMetrics)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrSagaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrActiveSagaExists), errors.Is(err, domain.ErrInvalidOrderTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrderStatus), errors.Is(err, domain.ErrInvalidSagaStatus):
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}
