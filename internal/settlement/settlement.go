// Package settlement implements the settlement lifecycle.
//
//	pending --complete (by payer)--> completed (terminal)
//	pending --delete (by payer or payee)--> removed
//
// Completed settlements cannot be deleted, completed again or otherwise
// changed. Functions here are pure; persistence belongs to the caller.
package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// New builds a pending settlement from one member of g to another.
// Both users must be current members; the amount must be positive.
func New(g *models.Group, fromUserID, toUserID string, amount money.Money, note string) (*models.Settlement, error) {
	if strings.TrimSpace(fromUserID) == "" || strings.TrimSpace(toUserID) == "" {
		return nil, fmt.Errorf("%w: from_user_id and to_user_id are required", models.ErrInvalidInput)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot settle with yourself", models.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: settlement amount must be greater than zero", money.ErrInvalidAmount)
	}
	if err := g.RequireMember(fromUserID); err != nil {
		return nil, err
	}
	if err := g.RequireMember(toUserID); err != nil {
		return nil, err
	}
	return &models.Settlement{
		GroupID:    g.ID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
		Status:     models.SettlementPending,
		Note:       note,
	}, nil
}

// Complete marks s completed as actor at now and returns the updated copy.
// Only the payer may complete, and only while pending.
func Complete(s models.Settlement, actor string, now time.Time) (models.Settlement, error) {
	if s.Status != models.SettlementPending {
		return s, reject(s, "complete", actor, "settlement is already "+string(s.Status))
	}
	if actor != s.FromUserID {
		return s, reject(s, "complete", actor, "only the payer can confirm the payment")
	}
	s.Status = models.SettlementCompleted
	s.SettledAt = now.Unix()
	return s, nil
}

// CheckDelete returns nil if actor may delete s: it must be pending and actor
// must be its payer or payee.
func CheckDelete(s models.Settlement, actor string) error {
	if s.Status != models.SettlementPending {
		return reject(s, "delete", actor, "completed settlements cannot be deleted")
	}
	if actor != s.FromUserID && actor != s.ToUserID {
		return reject(s, "delete", actor, "only the payer or payee can delete a settlement")
	}
	return nil
}

// Adjustment is the balance change s applies: the payer's balance rises by
// the amount and the payee's falls by it. The two entries always sum to zero.
func Adjustment(s models.Settlement) map[string]money.Money {
	return map[string]money.Money{
		s.FromUserID: s.Amount,
		s.ToUserID:   s.Amount.Neg(),
	}
}

func reject(s models.Settlement, action, actor, reason string) error {
	return &models.StateTransitionError{
		SettlementID: s.ID,
		Status:       s.Status,
		Action:       action,
		Actor:        actor,
		Reason:       reason,
	}
}
