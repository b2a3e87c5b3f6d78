package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = `id, group_id, from_user_id, to_user_id, amount, status, created_at, settled_at, note`

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireMembers(ctx, tx, settlement.GroupID, settlement.FromUserID, settlement.ToUserID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.Cents(), string(settlement.Status), settlement.CreatedAt,
		nullInt(settlement.SettledAt), nullString(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return getSettlement(ctx, s.db, settlementID)
}

// UpdateSettlement applies a transition to a settlement atomically.
func (s *SQLiteStore) UpdateSettlement(ctx context.Context, settlementID string, apply func(models.Settlement) (models.Settlement, error)) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getSettlement(ctx, tx, settlementID)
	if err != nil {
		return nil, err
	}
	next, err := apply(*current)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE settlements SET status = ?, settled_at = ?, note = ? WHERE id = ?",
		string(next.Status), nullInt(next.SettledAt), nullString(next.Note), settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &next, nil
}

// DeleteSettlement removes a settlement by ID if check allows it.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, settlementID string, check func(models.Settlement) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getSettlement(ctx, tx, settlementID)
	if err != nil {
		return err
	}
	if err := check(*current); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID); err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

func getSettlement(ctx context.Context, q querier, settlementID string) (*models.Settlement, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`,
		settlementID,
	)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return settlement, err
}

func scanSettlement(row scanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var status string
	var settledAt sql.NullInt64
	var note sql.NullString

	err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID, &settlement.ToUserID,
		&settlement.Amount, &status, &settlement.CreatedAt, &settledAt, &note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}

	settlement.Status = models.SettlementStatus(status)
	if settledAt.Valid {
		settlement.SettledAt = settledAt.Int64
	}
	if note.Valid {
		settlement.Note = note.String
	}
	return settlement, nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
