package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// GroupBalance is one member's derived balance, joined with their display
// name. Balance is positive when the member is owed money.
type GroupBalance struct {
	UserID    string
	Name      string
	Balance   money.Money
	TotalPaid money.Money
	TotalOwed money.Money
	// Former is set for users who still carry history in the group but are
	// no longer members.
	Former bool
}

// snapshot is everything the aggregator needs for one group.
type snapshot struct {
	group       *models.Group
	expenses    []models.Expense
	settlements []models.Settlement
}

// load fetches the group, its expenses and its settlements concurrently.
// Each read sees whatever is committed at the time it runs.
func (s *Service) load(ctx context.Context, groupID string) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		group, err := s.store.GetGroup(gctx, groupID)
		if err != nil {
			return err
		}
		snap.group = group
		return nil
	})
	g.Go(func() error {
		expenses, err := s.store.ListExpensesByGroup(gctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		snap.expenses = make([]models.Expense, len(expenses))
		for i, e := range expenses {
			snap.expenses[i] = *e
		}
		return nil
	})
	g.Go(func() error {
		settlements, err := s.store.ListSettlementsByGroup(gctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list settlements: %w", err)
		}
		snap.settlements = make([]models.Settlement, len(settlements))
		for i, st := range settlements {
			snap.settlements[i] = *st
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetGroupBalances derives every member's balance from the full history,
// applying settlements according to the service's policy.
func (s *Service) GetGroupBalances(ctx context.Context, groupID string) ([]GroupBalance, error) {
	return s.Balances(ctx, groupID, s.policy)
}

// Balances is GetGroupBalances with an explicit settlement policy.
func (s *Service) Balances(ctx context.Context, groupID string, policy calculator.SettlementPolicy) ([]GroupBalance, error) {
	snap, err := s.load(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}

	names := make(map[string]string, len(snap.group.Members))
	for _, m := range snap.group.Members {
		names[m.UserID] = m.DisplayName
	}

	summaries := calculator.Summarize(snap.group.MemberIDs(), snap.expenses, snap.settlements, policy)
	out := make([]GroupBalance, len(summaries))
	var total money.Money
	for i, sum := range summaries {
		name, member := names[sum.UserID]
		if name == "" {
			name = sum.UserID
		}
		out[i] = GroupBalance{
			UserID:    sum.UserID,
			Name:      name,
			Balance:   sum.Net,
			TotalPaid: sum.TotalPaid,
			TotalOwed: sum.TotalOwed,
			Former:    !member,
		}
		total = total.Add(sum.Net)
	}
	if !total.IsZero() {
		// Stored splits always reconcile, so this means the data was edited
		// behind the ledger's back.
		slog.Error("Group balances do not sum to zero", "group_id", groupID, "sum", total.Cents())
	}

	slog.Debug("Group balances computed",
		"group_id", groupID,
		"expenses", len(snap.expenses),
		"settlements", len(snap.settlements),
	)
	return out, nil
}

// GetDebts returns the simplified list of payments that would settle the
// group, from completed settlements only.
func (s *Service) GetDebts(ctx context.Context, groupID string) ([]calculator.DebtEdge, error) {
	snap, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	balances := calculator.Aggregate(snap.group.MemberIDs(), snap.expenses, snap.settlements, calculator.CompletedOnly)
	return calculator.SimplifyDebts(balances), nil
}

// GetGroupTotal is the sum of all expense amounts in the group.
func (s *Service) GetGroupTotal(ctx context.Context, groupID string) (money.Money, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return 0, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	flat := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		flat[i] = *e
	}
	return calculator.GroupTotal(flat), nil
}
