package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense persists a new expense and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Date == 0 {
		e.Date = e.CreatedAt
	}
	if e.Description == "" {
		e.Description = generateDescription(e.ParticipantIDs())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireMembers(ctx, tx, e.GroupID, append([]string{e.PaidByID}, e.ParticipantIDs()...)...); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, mode, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Description, e.Amount.Cents(), e.PaidByID, e.Mode.String(), e.Category, e.Date, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, mode, category, date, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	splits, err := listSplits(ctx, s.db, e.ID, e.Mode)
	if err != nil {
		return nil, err
	}
	e.Splits = splits
	return e, nil
}

// UpdateExpense replaces an expense and all of its splits.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireMembers(ctx, tx, e.GroupID, append([]string{e.PaidByID}, e.ParticipantIDs()...)...); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, paid_by = ?, mode = ?, category = ?, date = ?
		 WHERE id = ? AND group_id = ?`,
		e.Description, e.Amount.Cents(), e.PaidByID, e.Mode.String(), e.Category, e.Date, e.ID, e.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	} else if n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM splits WHERE expense_id = ?", e.ID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	if err := insertSplits(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; its splits go with it.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpensesByGroup returns a group's expenses, most recent first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, mode, category, date, created_at
		 FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Splits are loaded after the expense cursor is closed; the pool has a
	// single connection.
	for _, e := range expenses {
		if e.Splits, err = listSplits(ctx, s.db, e.ID, e.Mode); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var mode string
	err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PaidByID, &mode, &e.Category, &e.Date, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	if e.Mode, err = models.ParseSplitMode(mode); err != nil {
		return nil, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	return e, nil
}

func insertSplits(ctx context.Context, q querier, e *models.Expense) error {
	for _, split := range e.Splits {
		var pct any
		if p := split.Percentage(); p != nil {
			pct = p.String()
		}
		_, err := q.ExecContext(ctx,
			"INSERT INTO splits (expense_id, user_id, amount, percentage, settled) VALUES (?, ?, ?, ?, ?)",
			e.ID, split.UserID, split.Amount.Cents(), pct, split.Settled,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func listSplits(ctx context.Context, q querier, expenseID string, mode models.SplitMode) ([]models.Split, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id, amount, percentage, settled FROM splits WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		var pctText sql.NullString
		if err := rows.Scan(&split.UserID, &split.Amount, &pctText, &split.Settled); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}

		var pct *decimal.Decimal
		if pctText.Valid {
			d, err := decimal.NewFromString(pctText.String)
			if err != nil {
				return nil, fmt.Errorf("split %s/%s: bad percentage %q: %w", expenseID, split.UserID, pctText.String, err)
			}
			pct = &d
		}
		if split.Share, err = models.NewShare(mode, pct); err != nil {
			return nil, fmt.Errorf("split %s/%s: %w", expenseID, split.UserID, err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// generateDescription names an expense after its participants when the
// caller left the description blank.
func generateDescription(participants []string) string {
	if len(participants) == 0 {
		return fmt.Sprintf("Expense - %s", time.Now().Format("Jan 2, 2006"))
	}
	if len(participants) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(participants, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(participants[:2], ", "),
		len(participants)-2,
	)
}
