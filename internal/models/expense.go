package models

import "github.com/mmynk/splitledger/internal/money"

// Expense is a single shared cost. Its splits always reconcile to Amount.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the owning group.
	GroupID string

	// Description is the human-readable name for the expense (e.g., "Groceries").
	Description string

	// Amount is the total cost, always positive.
	Amount money.Money

	// PaidByID is the member who fronted the money.
	PaidByID string

	// Mode is the rule the splits were allocated under.
	Mode SplitMode

	// Category is free-form (e.g., "food", "rent").
	Category string

	// Date is the Unix timestamp the expense happened.
	Date int64

	// Splits holds one entry per participating member; order is irrelevant.
	Splits []Split

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ParticipantIDs returns the user IDs that hold a split.
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}
