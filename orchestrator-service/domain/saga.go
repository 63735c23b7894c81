package domain

import (
	"strings"
	"time"

	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// SagaStatus represents the lifecycle status of a saga
type SagaStatus string

const (
	SagaStatusStarted      SagaStatus = "STARTED"
	SagaStatusInProgress   SagaStatus = "IN_PROGRESS"
	SagaStatusCompleted    SagaStatus = "COMPLETED"
	SagaStatusFailed       SagaStatus = "FAILED"
	SagaStatusCompensating SagaStatus = "COMPENSATING"
	SagaStatusCompensated  SagaStatus = "COMPENSATED"
)

// ParseSagaStatus parses a status name, case-insensitive
func ParseSagaStatus(s string) (SagaStatus, error) {
	status := SagaStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case SagaStatusStarted, SagaStatusInProgress, SagaStatusCompleted,
		SagaStatusFailed, SagaStatusCompensating, SagaStatusCompensated:
		return status, nil
	}
	return "", errors.Wrapf(ErrInvalidSagaStatus, "%q", s)
}

// IsTerminal reports whether no further transition can leave this status
func (s SagaStatus) IsTerminal() bool {
	return s == SagaStatusCompleted || s == SagaStatusCompensated || s == SagaStatusFailed
}

func (s SagaStatus) String() string {
	return string(s)
}

// SagaStep is the last step the saga initiated
type SagaStep string

const (
	StepOrderCreated      SagaStep = "ORDER_CREATED"
	StepPaymentProcessed  SagaStep = "PAYMENT_PROCESSED"
	StepInventoryReserved SagaStep = "INVENTORY_RESERVED"
	StepShippingArranged  SagaStep = "SHIPPING_ARRANGED"
)

var stepSequence = []SagaStep{
	StepOrderCreated,
	StepPaymentProcessed,
	StepInventoryReserved,
	StepShippingArranged,
}

func (s SagaStep) index() int {
	for i, step := range stepSequence {
		if step == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is a known step
func (s SagaStep) IsValid() bool {
	return s.index() >= 0
}

// Next returns the step that follows s on the happy path
func (s SagaStep) Next() (SagaStep, bool) {
	i := s.index()
	if i < 0 || i == len(stepSequence)-1 {
		return "", false
	}
	return stepSequence[i+1], true
}

// Previous returns the step before s
func (s SagaStep) Previous() (SagaStep, bool) {
	i := s.index()
	if i <= 0 {
		return "", false
	}
	return stepSequence[i-1], true
}

func (s SagaStep) String() string {
	return string(s)
}

// SagaTransaction is the ledger record of one order fulfilment attempt.
//
// Version is the version stored in the ledger; zero means the record was
// never saved. Repositories bump it on every successful write.
type SagaTransaction struct {
	ID               models.ID
	OrderID          models.ID
	Status           SagaStatus
	CurrentStep      SagaStep
	CompensationStep SagaStep
	ErrorMessage     string
	RetryCount       int
	Timestamps       models.Timestamps
	CompletedAt      *time.Time
	Version          models.Version
}

// NewSagaTransaction creates a saga for the given order in STARTED/ORDER_CREATED
func NewSagaTransaction(orderID models.ID, now time.Time) (*SagaTransaction, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}

	return &SagaTransaction{
		ID:          models.GenerateUUID(),
		OrderID:     orderID,
		Status:      SagaStatusStarted,
		CurrentStep: StepOrderCreated,
		Timestamps:  models.NewTimestampsAt(now),
	}, nil
}

// IsNew reports whether the saga was never persisted
func (s *SagaTransaction) IsNew() bool {
	return s.Version.Value == 0
}

// Advance moves the saga to the next step. The first advance also moves the
// status from STARTED to IN_PROGRESS.
func (s *SagaTransaction) Advance(step SagaStep, now time.Time) error {
	if s.Status.IsTerminal() {
		return errors.Wrapf(ErrTerminalSaga, "saga %s is %s", s.ID, s.Status)
	}

	next, ok := s.CurrentStep.Next()
	if !ok || next != step {
		return errors.Wrapf(ErrInvalidTransition, "cannot advance from %s to %s", s.CurrentStep, step)
	}

	switch s.Status {
	case SagaStatusStarted:
		s.Status = SagaStatusInProgress
	case SagaStatusInProgress:
	default:
		return errors.Wrapf(ErrInvalidTransition, "cannot advance a %s saga", s.Status)
	}

	s.CurrentStep = step
	s.Timestamps = s.Timestamps.Touch(now)
	return nil
}

// Complete marks the saga COMPLETED. Only a saga whose last step was
// arranged can complete.
func (s *SagaTransaction) Complete(now time.Time) error {
	if s.Status.IsTerminal() {
		return errors.Wrapf(ErrTerminalSaga, "saga %s is %s", s.ID, s.Status)
	}
	if s.Status != SagaStatusInProgress || s.CurrentStep != StepShippingArranged {
		return errors.Wrapf(ErrInvalidTransition, "cannot complete a %s saga at %s", s.Status, s.CurrentStep)
	}

	s.Status = SagaStatusCompleted
	s.complete(now)
	return nil
}

// BeginCompensation marks the saga COMPENSATING, unwinding from anchor
func (s *SagaTransaction) BeginCompensation(anchor SagaStep, now time.Time) error {
	if s.Status.IsTerminal() {
		return errors.Wrapf(ErrTerminalSaga, "saga %s is %s", s.ID, s.Status)
	}
	if s.Status != SagaStatusInProgress {
		return errors.Wrapf(ErrInvalidTransition, "cannot compensate a %s saga", s.Status)
	}
	if !anchor.IsValid() {
		return errors.Wrapf(ErrInvalidTransition, "unknown anchor step %q", anchor)
	}

	s.Status = SagaStatusCompensating
	s.CompensationStep = anchor
	s.Timestamps = s.Timestamps.Touch(now)
	return nil
}

// MarkCompensated marks the saga COMPENSATED once every action was dispatched
func (s *SagaTransaction) MarkCompensated(now time.Time) error {
	if s.Status != SagaStatusCompensating {
		return errors.Wrapf(ErrInvalidTransition, "cannot mark a %s saga compensated", s.Status)
	}

	s.Status = SagaStatusCompensated
	s.complete(now)
	return nil
}

// Fail marks the saga FAILED. Any non-terminal saga can fail.
func (s *SagaTransaction) Fail(reason string, now time.Time) error {
	if s.Status.IsTerminal() {
		return errors.Wrapf(ErrTerminalSaga, "saga %s is %s", s.ID, s.Status)
	}

	s.Status = SagaStatusFailed
	s.ErrorMessage = reason
	s.complete(now)
	return nil
}

// IncrementRetry counts one more dispatch attempt
func (s *SagaTransaction) IncrementRetry(now time.Time) {
	s.RetryCount++
	s.Timestamps = s.Timestamps.Touch(now)
}

// Duration is the elapsed time from creation to now, never negative
func (s *SagaTransaction) Duration(now time.Time) time.Duration {
	d := now.Sub(s.Timestamps.CreatedAt)
	if d < 0 {
		return 0
	}
	return d
}

// AwaitsResponseFor reports whether the saga is waiting for the participant
// response of step
func (s *SagaTransaction) AwaitsResponseFor(step SagaStep) bool {
	return s.Status == SagaStatusInProgress && s.CurrentStep == step
}

func (s *SagaTransaction) complete(now time.Time) {
	s.Timestamps = s.Timestamps.Touch(now)
	completedAt := now
	s.CompletedAt = &completedAt
}
