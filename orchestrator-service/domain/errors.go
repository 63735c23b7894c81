package domain

import "github.com/pkg/errors"

var (
	ErrSagaNotFound      = errors.New("saga not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrVersionConflict   = errors.New("version conflict")
	ErrInvalidTransition = errors.New("invalid saga transition")
	ErrTerminalSaga      = errors.New("saga is in a terminal state")
	ErrActiveSagaExists  = errors.New("order already has an active saga")

	ErrInvalidOrderTransition = errors.New("invalid order transition")
	ErrInvalidOrderStatus     = errors.New("invalid order status")
	ErrInvalidSagaStatus      = errors.New("invalid saga status")
)
