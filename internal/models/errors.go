package models

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

// Sentinel errors, for use with errors.Is.
var (
	// ErrInvalidAmount is money.ErrInvalidAmount, re-exported so callers can
	// check the whole taxonomy against one package.
	ErrInvalidAmount = money.ErrInvalidAmount

	// ErrInvalidInput is returned for requests that are missing required
	// fields or are otherwise malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSplitReconciliation is returned when proposed splits do not add up
	// to the expense total. Recoverable: re-prompt with the message.
	ErrSplitReconciliation = errors.New("splits do not reconcile to the expense total")

	// ErrNotAGroupMember is returned when a write references a user outside
	// the group's current membership.
	ErrNotAGroupMember = errors.New("not a group member")

	// ErrInvalidStateTransition is returned for a settlement transition that
	// the lifecycle does not allow.
	ErrInvalidStateTransition = errors.New("invalid settlement state transition")

	// ErrLastMember is returned when removing a member would leave the
	// group empty.
	ErrLastMember = errors.New("a group must keep at least one member")
)

// ReconciliationError carries the user-facing validator message.
type ReconciliationError struct {
	Message string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSplitReconciliation, e.Message)
}

func (e *ReconciliationError) Unwrap() error {
	return ErrSplitReconciliation
}

// NotAGroupMemberError names the user that is not in the group.
type NotAGroupMemberError struct {
	GroupID string
	UserID  string
}

func (e *NotAGroupMemberError) Error() string {
	return fmt.Sprintf("user %s is not a member of group %s", e.UserID, e.GroupID)
}

func (e *NotAGroupMemberError) Unwrap() error {
	return ErrNotAGroupMember
}

// StateTransitionError describes a rejected settlement transition.
type StateTransitionError struct {
	SettlementID string
	Status       SettlementStatus
	Action       string // "complete" or "delete"
	Actor        string
	Reason       string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s settlement %s (%s) as %s: %s",
		e.Action, e.SettlementID, e.Status, e.Actor, e.Reason)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// RequireMember returns a NotAGroupMemberError unless userID belongs to g.
func (g *Group) RequireMember(userID string) error {
	if !g.HasMember(userID) {
		return &NotAGroupMemberError{GroupID: g.ID, UserID: userID}
	}
	return nil
}

// IsClientError reports whether err was caused by invalid input that the
// caller can correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrSplitReconciliation)
}

// IsPreconditionError reports whether err was caused by the current state of
// the group or settlement rather than by the request shape.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrNotAGroupMember) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrLastMember)
}
