package models

import "github.com/mmynk/splitledger/internal/money"

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	// SettlementPending is the initial state: recorded but not confirmed.
	SettlementPending SettlementStatus = "pending"
	// SettlementCompleted is terminal; the payment has been confirmed by the payer.
	SettlementCompleted SettlementStatus = "completed"
)

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who pays (the debtor settling up).
	FromUserID string

	// ToUserID is the user who receives the payment (the creditor).
	ToUserID string

	// Amount is the payment amount, always positive.
	Amount money.Money

	// Status is pending until the payer completes it.
	Status SettlementStatus

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// SettledAt is the Unix timestamp of completion; zero while pending.
	SettledAt int64

	// Note is an optional description for the settlement.
	Note string
}

// IsCompleted reports whether the settlement reached its terminal state.
func (s *Settlement) IsCompleted() bool {
	return s.Status == SettlementCompleted
}
