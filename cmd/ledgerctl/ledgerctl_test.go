package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSplitCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "equal",
			args: []string{"split", "--total", "100", "--members", "alice,bob,carol"},
			want: []string{"alice", "$33.34", "$33.33", "33.33%", "OK: equal split of $100.00"},
		},
		{
			name: "percentage",
			args: []string{"split", "--total", "50", "--mode", "percentage", "--members", "alice,bob", "--share", "alice=60,bob=40"},
			want: []string{"$30.00", "$20.00", "60.00%", "OK: percentage split"},
		},
		{
			name: "exact short",
			args: []string{"split", "--total", "30", "--mode", "exact", "--members", "alice,bob", "--share", "alice=10,bob=15"},
			want: []string{"INVALID: Amounts are $5.00 less than the total. ($5.00 remaining)"},
		},
		{
			name: "exact residual absorbed by payer",
			args: []string{"split", "--total", "30", "--mode", "exact", "--members", "alice,bob", "--share", "alice=14.99,bob=15", "--payer", "alice"},
			want: []string{"$15.00", "OK: exact split of $30.00"},
		},
		{
			name: "locale",
			args: []string{"split", "--total", "10", "--members", "a,b", "--locale", "en-GB", "--currency", "GBP"},
			want: []string{"£5.00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestSplitCmd_Errors(t *testing.T) {
	_, err := runCmd(t, "split", "--total", "ten", "--members", "a")
	assert.Error(t, err)

	_, err = runCmd(t, "split", "--total", "10", "--members", "a", "--mode", "shares")
	assert.Error(t, err)

	_, err = runCmd(t, "split", "--total", "10")
	assert.Error(t, err, "members is required")
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("TOKEN_TTL", "1h")

	out, err := runCmd(t, "token", "--user", "alice", "--name", "Alice")
	require.NoError(t, err)

	id, err := auth.NewJWTManager("cli-secret", time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserID)
	assert.Equal(t, "Alice", id.DisplayName)
}

func TestMigrateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")

	out, err := runCmd(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migration version 1")

	// Running again is a no-op.
	out, err = runCmd(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migration version 1")
}

func TestBalancesCmd(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	path, handler := service.NewLedgerServiceHandler(service.NewLedgerService(ledger.New(store)), jwtManager)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	token, err := jwtManager.Generate(auth.Identity{UserID: "A", DisplayName: "Alice"})
	require.NoError(t, err)
	client := service.NewLedgerClient(http.DefaultClient, server.URL, token)

	ctx := context.Background()
	created, err := client.CreateGroup(ctx, &service.CreateGroupRequest{Name: "Trip"})
	require.NoError(t, err)
	_, err = client.AddMember(ctx, &service.AddMemberRequest{GroupID: created.Group.ID, UserID: "B", DisplayName: "Bob"})
	require.NoError(t, err)
	_, err = client.CreateExpense(ctx, &service.CreateExpenseRequest{Expense: service.Expense{
		GroupID:  created.Group.ID,
		Amount:   2000,
		PaidByID: "A",
		Mode:     models.ModeEqual,
		Splits: []models.Split{
			{UserID: "A", Amount: 1000, Share: models.EqualShare{}},
			{UserID: "B", Amount: 1000, Share: models.EqualShare{}},
		},
	}})
	require.NoError(t, err)

	out, err := runCmd(t, "balances", created.Group.ID, "--host", server.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "$10.00")
	assert.Contains(t, out, "-$10.00")
	assert.Contains(t, out, "B -> A: $10.00")

	t.Setenv("LEDGER_TOKEN", "")
	_, err = runCmd(t, "balances", created.Group.ID, "--host", server.URL)
	assert.Error(t, err, "unauthenticated")
}
