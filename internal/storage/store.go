// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when a group, expense or settlement does not exist.
var ErrNotFound = errors.New("not found")

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists g with its initial members. g.ID and
	// g.CreatedAt are populated when empty.
	CreateGroup(ctx context.Context, g *models.Group) error

	// GetGroup returns the group with its current members in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns every group userID currently belongs to.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddMember adds m to the group. Adding an existing member updates its
	// display name.
	AddMember(ctx context.Context, groupID string, m models.Member) error

	// RemoveMember removes userID from the group. It returns
	// models.ErrLastMember instead of leaving the group empty.
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// ExpenseStore persists expenses together with their splits.
type ExpenseStore interface {
	// CreateExpense persists e and its splits in one transaction. The payer
	// and every split user must be current members of e.GroupID; otherwise
	// a *models.NotAGroupMemberError is returned and nothing is written.
	CreateExpense(ctx context.Context, e *models.Expense) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces the expense fields and all of its splits,
	// with the same membership check as CreateExpense.
	UpdateExpense(ctx context.Context, e *models.Expense) error

	// DeleteExpense removes the expense and its splits.
	DeleteExpense(ctx context.Context, expenseID string) error

	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
}

// SettlementStore persists settlements. Transitions run as a
// read-check-write inside one transaction so concurrent callers cannot both
// pass the check.
type SettlementStore interface {
	// CreateSettlement persists s. Both parties must be current members.
	CreateSettlement(ctx context.Context, s *models.Settlement) error

	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// UpdateSettlement loads the settlement, passes it to apply and stores
	// the result. An error from apply aborts the transaction and is
	// returned unchanged.
	UpdateSettlement(ctx context.Context, settlementID string, apply func(models.Settlement) (models.Settlement, error)) (*models.Settlement, error)

	// DeleteSettlement loads the settlement and deletes it if check
	// returns nil.
	DeleteSettlement(ctx context.Context, settlementID string, check func(models.Settlement) error) error

	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// Store defines the full ledger storage interface.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	GroupStore
	ExpenseStore
	SettlementStore

	// Close releases any resources held by the store.
	Close() error
}
