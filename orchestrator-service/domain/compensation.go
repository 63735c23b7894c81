package domain

import (
	"strings"

	"github.com/draftea/order-saga/shared/events"
	"github.com/pkg/errors"
)

// CompensationType identifies one undo action
type CompensationType string

const (
	CompensationCancelShipping   CompensationType = "SHIPPING_CANCELLATION"
	CompensationReleaseInventory CompensationType = "INVENTORY_RELEASE"
	CompensationRefundPayment    CompensationType = "PAYMENT_REFUND"
	CompensationCancelOrder      CompensationType = "ORDER_CANCELLATION"
)

// Compensation data actions
const (
	ActionCancelShipping   = "CANCEL_SHIPPING"
	ActionReleaseInventory = "RELEASE_INVENTORY"
	ActionRefundPayment    = "REFUND_PAYMENT"
)

// Topic is the compensation channel for the action. Order cancellation has
// no participant channel; it goes through the order service.
func (t CompensationType) Topic() (events.Topic, bool) {
	switch t {
	case CompensationCancelShipping:
		return events.ShippingCompensationTopic, true
	case CompensationReleaseInventory:
		return events.InventoryCompensationTopic, true
	case CompensationRefundPayment:
		return events.PaymentCompensationTopic, true
	}
	return "", false
}

func (t CompensationType) String() string {
	return string(t)
}

// compensationPlans lists, per anchor step, the undo actions in strict
// reverse dependency order
var compensationPlans = map[SagaStep][]CompensationType{
	StepShippingArranged: {
		CompensationCancelShipping,
		CompensationReleaseInventory,
		CompensationRefundPayment,
		CompensationCancelOrder,
	},
	StepInventoryReserved: {
		CompensationReleaseInventory,
		CompensationRefundPayment,
		CompensationCancelOrder,
	},
	StepPaymentProcessed: {
		CompensationRefundPayment,
		CompensationCancelOrder,
	},
	StepOrderCreated: {
		CompensationCancelOrder,
	},
}

// CompensationPlan returns the ordered undo actions for anchor
func CompensationPlan(anchor SagaStep) []CompensationType {
	plan := compensationPlans[anchor]
	return append([]CompensationType(nil), plan...)
}

// AnchorPolicy decides which step a participant failure anchors compensation at
type AnchorPolicy string

const (
	// AnchorLastCompleted unwinds only the steps that completed before the failed one
	AnchorLastCompleted AnchorPolicy = "last_completed"
	// AnchorFailedStep unwinds from the failed step itself
	AnchorFailedStep AnchorPolicy = "failed_step"
)

// ParseAnchorPolicy parses a policy name; empty selects AnchorLastCompleted
func ParseAnchorPolicy(s string) (AnchorPolicy, error) {
	switch policy := AnchorPolicy(strings.ToLower(strings.TrimSpace(s))); policy {
	case "":
		return AnchorLastCompleted, nil
	case AnchorLastCompleted, AnchorFailedStep:
		return policy, nil
	}
	return "", errors.Errorf("unknown compensation anchor policy %q", s)
}

// Anchor returns the anchor step for a participant failure at failed
func (p AnchorPolicy) Anchor(failed SagaStep) SagaStep {
	if p == AnchorFailedStep {
		return failed
	}
	if previous, ok := failed.Previous(); ok {
		return previous
	}
	return StepOrderCreated
}
