package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// ComputeSplits returns the calculator's allocation for a draft.
func (s *Service) ComputeSplits(d calculator.ExpenseDraft) ([]models.Split, error) {
	return calculator.Calculate(d.Total, d.Mode, d.Members, d.Splits)
}

// ValidateSplits checks an expense's proposed splits against its amount.
func (s *Service) ValidateSplits(e models.Expense) calculator.Result {
	return s.validator.Validate(e.Amount, e.Mode, e.Splits)
}

// CreateExpense validates e and persists it with its splits. On success
// e.ID and e.CreatedAt are set and e.Splits holds the stored allocation.
func (s *Service) CreateExpense(ctx context.Context, e *models.Expense) error {
	if err := s.prepare(e, false); err != nil {
		slog.Warn("CreateExpense rejected", "group_id", e.GroupID, "error", err)
		return err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		slog.Error("CreateExpense failed", "group_id", e.GroupID, "error", err)
		return err
	}
	slog.Info("Expense created",
		"expense_id", e.ID,
		"group_id", e.GroupID,
		"amount", e.Amount.Cents(),
		"mode", e.Mode.String(),
		"splits", len(e.Splits),
	)
	return nil
}

// UpdateExpense replaces an existing expense. Equal splits are recomputed
// from the participants; percentage and exact splits are re-validated. The
// owning group cannot change.
func (s *Service) UpdateExpense(ctx context.Context, e *models.Expense) error {
	existing, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return err
	}
	e.GroupID = existing.GroupID
	e.CreatedAt = existing.CreatedAt
	if e.Date == 0 {
		e.Date = existing.Date
	}
	if e.Description == "" {
		e.Description = existing.Description
	}

	if err := s.prepare(e, true); err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", e.ID, "error", err)
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", e.ID, "error", err)
		return err
	}
	slog.Info("Expense updated", "expense_id", e.ID, "amount", e.Amount.Cents())
	return nil
}

// DeleteExpense removes an expense and its splits.
func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	slog.Info("Expense deleted", "expense_id", expenseID)
	return nil
}

// GetExpense returns one expense with its splits.
func (s *Service) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return s.store.GetExpense(ctx, expenseID)
}

// ListExpenses returns a group's expenses, most recent first.
func (s *Service) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// prepare turns a proposed expense into the record that is stored: the
// splits are validated and then made to sum exactly to the amount.
func (s *Service) prepare(e *models.Expense, recomputeEqual bool) error {
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be greater than zero", models.ErrInvalidAmount)
	}
	if e.GroupID == "" || e.PaidByID == "" {
		return fmt.Errorf("%w: group_id and paid_by_id are required", models.ErrInvalidInput)
	}
	if !e.Mode.Valid() {
		return fmt.Errorf("%w: invalid split mode %d", models.ErrInvalidInput, uint8(e.Mode))
	}
	if len(e.Splits) == 0 {
		return &models.ReconciliationError{Message: "Choose at least one person to split with."}
	}

	splits := e.Splits
	switch e.Mode {
	case models.ModeEqual:
		if recomputeEqual {
			recomputed, err := calculator.Calculate(e.Amount, models.ModeEqual, e.ParticipantIDs(), nil)
			if err != nil {
				return err
			}
			splits = carrySettled(recomputed, splits)
		}
	case models.ModeExact:
		splits = calculator.Reconcile(e.Amount, e.PaidByID, splits)
	}

	if r := s.validator.Validate(e.Amount, e.Mode, splits); !r.IsValid {
		return &models.ReconciliationError{Message: r.Message}
	}

	if e.Mode == models.ModePercentage {
		// Amounts follow the accepted percentages and absorb rounding drift.
		recomputed, err := calculator.Calculate(e.Amount, models.ModePercentage, e.ParticipantIDs(), splits)
		if err != nil {
			return err
		}
		splits = carrySettled(recomputed, splits)
	}

	if sum := calculator.Sum(splits); sum != e.Amount {
		return &models.ReconciliationError{
			Message: fmt.Sprintf("Splits add up to %s, not %s.", s.validator.Format(sum), s.validator.Format(e.Amount)),
		}
	}
	e.Splits = splits
	return nil
}

func carrySettled(next, prev []models.Split) []models.Split {
	settled := make(map[string]bool, len(prev))
	for _, p := range prev {
		settled[p.UserID] = p.Settled
	}
	for i := range next {
		next[i].Settled = settled[next[i].UserID]
	}
	return next
}
