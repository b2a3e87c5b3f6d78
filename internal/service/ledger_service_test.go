package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

type testServer struct {
	url string
	jwt *auth.JWTManager
}

// setupTestServer serves the ledger over a temp sqlite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := NewLedgerService(ledger.New(store))
	path, handler := NewLedgerServiceHandler(svc, jwtManager,
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return &testServer{url: server.URL, jwt: jwtManager}
}

// clientFor returns a client authenticated as userID.
func (s *testServer) clientFor(t *testing.T, userID, name string) *LedgerClient {
	t.Helper()
	token, err := s.jwt.Generate(auth.Identity{UserID: userID, DisplayName: name})
	require.NoError(t, err)
	return NewLedgerClient(http.DefaultClient, s.url, token)
}

func TestLedgerService_SettleUp(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	alice := srv.clientFor(t, "A", "Alice")
	bob := srv.clientFor(t, "B", "Bob")

	created, err := alice.CreateGroup(ctx, &CreateGroupRequest{Name: "Ski Trip"})
	require.NoError(t, err)
	groupID := created.Group.ID
	require.Len(t, created.Group.Members, 1)
	assert.Equal(t, "Alice", created.Group.Members[0].DisplayName)

	_, err = alice.AddMember(ctx, &AddMemberRequest{GroupID: groupID, UserID: "B", DisplayName: "Bob"})
	require.NoError(t, err)
	_, err = alice.AddMember(ctx, &AddMemberRequest{GroupID: groupID, UserID: "C", DisplayName: "Carol"})
	require.NoError(t, err)

	computed, err := alice.ComputeSplits(ctx, &ComputeSplitsRequest{Total: 9000, Mode: models.ModeEqual, Members: []string{"A", "B", "C"}})
	require.NoError(t, err)
	assert.True(t, computed.Validation.IsValid)

	_, err = alice.CreateExpense(ctx, &CreateExpenseRequest{Expense: Expense{
		GroupID:     groupID,
		Description: "Cabin",
		Amount:      9000,
		PaidByID:    "A",
		Mode:        models.ModeEqual,
		Splits:      computed.Splits,
	}})
	require.NoError(t, err)

	balances, err := bob.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: groupID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"A": 6000, "B": -3000, "C": -3000}, byUser(balances.Balances))
	assert.Equal(t, "$60.00", balances.Balances[0].Display)
	assert.Equal(t, int64(9000), balances.Total)
	assert.Len(t, balances.Debts, 2)

	recorded, err := bob.RecordSettlement(ctx, &RecordSettlementRequest{GroupID: groupID, FromUserID: "B", ToUserID: "A", Amount: 3000})
	require.NoError(t, err)
	assert.Equal(t, "pending", recorded.Settlement.Status)

	pending, err := bob.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: groupID, IncludePending: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), byUser(pending.Balances)["B"])

	_, err = alice.CompleteSettlement(ctx, &CompleteSettlementRequest{SettlementID: recorded.Settlement.ID})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "payee cannot complete")

	done, err := bob.CompleteSettlement(ctx, &CompleteSettlementRequest{SettlementID: recorded.Settlement.ID})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Settlement.Status)
	assert.NotZero(t, done.Settlement.SettledAt)

	balances, err = alice.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: groupID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"A": 3000, "B": 0, "C": -3000}, byUser(balances.Balances))

	_, err = bob.DeleteSettlement(ctx, &DeleteSettlementRequest{SettlementID: recorded.Settlement.ID})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "completed settlements are final")

	list, err := alice.ListSettlements(ctx, &ListSettlementsRequest{GroupID: groupID})
	require.NoError(t, err)
	assert.Len(t, list.Settlements, 1)
}

func byUser(balances []Balance) map[string]int64 {
	out := make(map[string]int64, len(balances))
	for _, b := range balances {
		out[b.UserID] = b.Balance
	}
	return out
}

func TestLedgerService_Expenses(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	alice := srv.clientFor(t, "A", "Alice")

	created, err := alice.CreateGroup(ctx, &CreateGroupRequest{Name: "Flat"})
	require.NoError(t, err)
	groupID := created.Group.ID
	_, err = alice.AddMember(ctx, &AddMemberRequest{GroupID: groupID, UserID: "B"})
	require.NoError(t, err)

	t.Run("unreconciled exact split returns the validator message", func(t *testing.T) {
		computed, err := alice.ComputeSplits(ctx, &ComputeSplitsRequest{
			Total:   3000,
			Mode:    models.ModeExact,
			Members: []string{"A", "B"},
			Prior: []models.Split{
				{UserID: "A", Amount: 1000, Share: models.ExactShare{}},
				{UserID: "B", Amount: 1500, Share: models.ExactShare{}},
			},
		})
		require.NoError(t, err)
		assert.False(t, computed.Validation.IsValid)
		assert.Equal(t, "$5.00 remaining", computed.RemainingLabel)

		_, err = alice.CreateExpense(ctx, &CreateExpenseRequest{Expense: Expense{
			GroupID: groupID, Amount: 3000, PaidByID: "A", Mode: models.ModeExact, Splits: computed.Splits,
		}})
		require.Error(t, err)
		var connectErr *connect.Error
		require.ErrorAs(t, err, &connectErr)
		assert.Equal(t, connect.CodeInvalidArgument, connectErr.Code())
		assert.Equal(t, "Amounts are $5.00 less than the total.", connectErr.Message())
	})

	t.Run("non-member split is a failed precondition", func(t *testing.T) {
		_, err := alice.CreateExpense(ctx, &CreateExpenseRequest{Expense: Expense{
			GroupID: groupID, Amount: 1000, PaidByID: "A", Mode: models.ModeExact,
			Splits: []models.Split{
				{UserID: "A", Amount: 500, Share: models.ExactShare{}},
				{UserID: "Z", Amount: 500, Share: models.ExactShare{}},
			},
		}})
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	})

	t.Run("create, update, delete", func(t *testing.T) {
		resp, err := alice.CreateExpense(ctx, &CreateExpenseRequest{Expense: Expense{
			GroupID: groupID, Amount: 2000, PaidByID: "B", Mode: models.ModeExact,
			Splits: []models.Split{
				{UserID: "A", Amount: 1000, Share: models.ExactShare{}},
				{UserID: "B", Amount: 1000, Share: models.ExactShare{}},
			},
		}})
		require.NoError(t, err)
		id := resp.Expense.ID
		require.NotEmpty(t, id)

		updated, err := alice.UpdateExpense(ctx, &UpdateExpenseRequest{Expense: Expense{
			ID: id, Amount: 3001, PaidByID: "B", Mode: models.ModeEqual,
			Splits: []models.Split{{UserID: "A", Share: models.EqualShare{}}, {UserID: "B", Share: models.EqualShare{}}},
		}})
		require.NoError(t, err)
		assert.Equal(t, groupID, updated.Expense.GroupID)

		list, err := alice.ListExpenses(ctx, &ListExpensesRequest{GroupID: groupID})
		require.NoError(t, err)
		require.Len(t, list.Expenses, 1)
		assert.Equal(t, int64(3001), list.Total)
		var sum int64
		for _, s := range list.Expenses[0].Splits {
			sum += s.Amount.Cents()
		}
		assert.Equal(t, int64(3001), sum)

		_, err = alice.DeleteExpense(ctx, &DeleteExpenseRequest{ExpenseID: id})
		require.NoError(t, err)
		_, err = alice.DeleteExpense(ctx, &DeleteExpenseRequest{ExpenseID: id})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestLedgerService_Access(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	alice := srv.clientFor(t, "A", "Alice")
	mallory := srv.clientFor(t, "M", "Mallory")
	anonymous := NewLedgerClient(http.DefaultClient, srv.url, "")

	created, err := alice.CreateGroup(ctx, &CreateGroupRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = anonymous.ListGroups(ctx, &ListGroupsRequest{})
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = mallory.GetGroupBalances(ctx, &GetGroupBalancesRequest{GroupID: created.Group.ID})
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = alice.GetGroup(ctx, &GetGroupRequest{GroupID: "missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = alice.RemoveMember(ctx, &RemoveMemberRequest{GroupID: created.Group.ID, UserID: "A"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "last member stays")

	groups, err := alice.ListGroups(ctx, &ListGroupsRequest{})
	require.NoError(t, err)
	assert.Len(t, groups.Groups, 1)

	// Calculation needs no account.
	computed, err := anonymous.ComputeSplits(ctx, &ComputeSplitsRequest{Total: 10000, Mode: models.ModeEqual, Members: []string{"x", "y", "z"}})
	require.NoError(t, err)
	amounts := make([]int64, len(computed.Splits))
	for i, s := range computed.Splits {
		amounts[i] = s.Amount.Cents()
	}
	assert.Equal(t, []int64{3334, 3333, 3333}, amounts)
}

func TestLedgerService_EditDraft(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()
	client := NewLedgerClient(http.DefaultClient, srv.url, "")

	start, err := client.ComputeSplits(ctx, &ComputeSplitsRequest{Total: 5000, Mode: models.ModePercentage, Members: []string{"A", "B"}})
	require.NoError(t, err)

	draft := EditDraftRequest{}
	draft.Draft.Total = 5000
	draft.Draft.Mode = models.ModePercentage
	draft.Draft.PaidBy = "A"
	draft.Draft.Members = []string{"A", "B"}
	draft.Draft.Splits = start.Splits

	draft.Action = DraftAction{Type: "setPercentage", UserID: "A", Percent: "90"}
	resp, err := client.EditDraft(ctx, &draft)
	require.NoError(t, err)
	pct := resp.Draft.Splits[0].Percentage()
	require.NotNil(t, pct)
	assert.Equal(t, "50", pct.String(), "clamped to what B leaves")
	assert.True(t, resp.CanLeave)

	draft.Draft = resp.Draft
	draft.Action = DraftAction{Type: "setPercentage", UserID: "B", Percent: "10"}
	resp, err = client.EditDraft(ctx, &draft)
	require.NoError(t, err)
	assert.False(t, resp.Validation.IsValid)
	assert.Equal(t, "Percentages add up to 60.0%, not 100%.", resp.Validation.Message)
	assert.False(t, resp.CanLeave)

	draft.Action = DraftAction{Type: "explode"}
	_, err = client.EditDraft(ctx, &draft)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	valid, err := client.ValidateSplits(ctx, &ValidateSplitsRequest{Amount: 5000, Mode: models.ModePercentage, Splits: start.Splits})
	require.NoError(t, err)
	assert.True(t, valid.Validation.IsValid)

	_, err = client.ValidateSplits(ctx, &ValidateSplitsRequest{Amount: -5000, Mode: models.ModePercentage, Splits: start.Splits})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "negative totals are rejected, not validated")
}
