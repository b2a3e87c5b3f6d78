package ledger

import (
	"context"
	"log/slog"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
)

// RecordSettlement records a pending payment from one member to another.
func (s *Service) RecordSettlement(ctx context.Context, groupID, fromUserID, toUserID string, amount money.Money, note string) (*models.Settlement, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	st, err := settlement.New(g, fromUserID, toUserID, amount, note)
	if err != nil {
		slog.Warn("RecordSettlement rejected", "group_id", groupID, "from", fromUserID, "to", toUserID, "error", err)
		return nil, err
	}

	// Membership is checked again inside the insert transaction.
	if err := s.store.CreateSettlement(ctx, st); err != nil {
		slog.Error("RecordSettlement failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Settlement recorded",
		"settlement_id", st.ID,
		"group_id", groupID,
		"from", fromUserID,
		"to", toUserID,
		"amount", amount.Cents(),
	)
	return st, nil
}

// CompleteSettlement confirms a pending settlement. Only its payer may do so.
func (s *Service) CompleteSettlement(ctx context.Context, settlementID, actor string) (*models.Settlement, error) {
	st, err := s.store.UpdateSettlement(ctx, settlementID, func(cur models.Settlement) (models.Settlement, error) {
		return settlement.Complete(cur, actor, s.now())
	})
	if err != nil {
		slog.Warn("CompleteSettlement rejected", "settlement_id", settlementID, "actor", actor, "error", err)
		return nil, err
	}
	slog.Info("Settlement completed", "settlement_id", settlementID, "settled_at", st.SettledAt)
	return st, nil
}

// DeleteSettlement removes a pending settlement on behalf of its payer or
// payee.
func (s *Service) DeleteSettlement(ctx context.Context, settlementID, actor string) error {
	err := s.store.DeleteSettlement(ctx, settlementID, func(cur models.Settlement) error {
		return settlement.CheckDelete(cur, actor)
	})
	if err != nil {
		slog.Warn("DeleteSettlement rejected", "settlement_id", settlementID, "actor", actor, "error", err)
		return err
	}
	slog.Info("Settlement deleted", "settlement_id", settlementID)
	return nil
}

// GetSettlement returns one settlement.
func (s *Service) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return s.store.GetSettlement(ctx, settlementID)
}

// ListSettlements returns a group's settlements, newest first.
func (s *Service) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}
