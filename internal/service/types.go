package service

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Wire types. Amounts are integer cents.

type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	JoinedAt    int64  `json:"joinedAt,omitempty"`
}

type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members"`
	CreatedAt   int64    `json:"createdAt"`
}

type Expense struct {
	ID          string           `json:"id,omitempty"`
	GroupID     string           `json:"groupId"`
	Description string           `json:"description,omitempty"`
	Amount      int64            `json:"amount"`
	PaidByID    string           `json:"paidById"`
	Mode        models.SplitMode `json:"mode"`
	Category    string           `json:"category,omitempty"`
	Date        int64            `json:"date,omitempty"`
	Splits      []models.Split   `json:"splits"`
	CreatedAt   int64            `json:"createdAt,omitempty"`
}

type Settlement struct {
	ID         string `json:"id"`
	GroupID    string `json:"groupId"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"`
	SettledAt  int64  `json:"settledAt,omitempty"`
	Note       string `json:"note,omitempty"`
}

type Balance struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Balance   int64  `json:"balance"`
	TotalPaid int64  `json:"totalPaid"`
	TotalOwed int64  `json:"totalOwed"`
	Former    bool   `json:"former,omitempty"`
	// Display is Balance formatted for the configured locale.
	Display string `json:"display"`
}

type Debt struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// DisplayName overrides the name carried in the caller's token.
	DisplayName string `json:"displayName,omitempty"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID     string `json:"groupId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

type AddMemberResponse struct {
	Group Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type RemoveMemberResponse struct {
	Group Group `json:"group"`
}

type ComputeSplitsRequest struct {
	Total   int64            `json:"total"`
	Mode    models.SplitMode `json:"mode"`
	Members []string         `json:"members"`
	// Prior is the caller's current allocation, used to keep percentages
	// and entered amounts.
	Prior []models.Split `json:"prior,omitempty"`
}

type ComputeSplitsResponse struct {
	Splits         []models.Split    `json:"splits"`
	Validation     calculator.Result `json:"validation"`
	RemainingLabel string            `json:"remainingLabel,omitempty"`
}

// DraftAction is one edit to an ExpenseDraft. Type selects which fields are
// read: setTotal, setMode, setMembers, setPercentage, setExactAmount,
// setPayer or setDetails.
type DraftAction struct {
	Type        string           `json:"type"`
	Total       int64            `json:"total,omitempty"`
	Mode        models.SplitMode `json:"mode,omitempty"`
	Members     []string         `json:"members,omitempty"`
	UserID      string           `json:"userId,omitempty"`
	Percent     string           `json:"percent,omitempty"`
	Text        string           `json:"text,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Date        int64            `json:"date,omitempty"`
}

type EditDraftRequest struct {
	Draft  calculator.ExpenseDraft `json:"draft"`
	Action DraftAction             `json:"action"`
}

type EditDraftResponse struct {
	Draft          calculator.ExpenseDraft `json:"draft"`
	Validation     calculator.Result       `json:"validation"`
	RemainingLabel string                  `json:"remainingLabel,omitempty"`
	CanLeave       bool                    `json:"canLeave"`
}

type ValidateSplitsRequest struct {
	Amount int64            `json:"amount"`
	Mode   models.SplitMode `json:"mode"`
	Splits []models.Split   `json:"splits"`
}

type ValidateSplitsResponse struct {
	Validation calculator.Result `json:"validation"`
}

type CreateExpenseRequest struct {
	Expense Expense `json:"expense"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	Expense Expense `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
	Total    int64     `json:"total"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
	// IncludePending also applies settlements that are not yet completed.
	IncludePending bool `json:"includePending,omitempty"`
}

type GetGroupBalancesResponse struct {
	Balances []Balance `json:"balances"`
	Debts    []Debt    `json:"debts"`
	Total    int64     `json:"total"`
}

type RecordSettlementRequest struct {
	GroupID    string `json:"groupId"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Amount     int64  `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type CompleteSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type CompleteSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type DeleteSettlementResponse struct{}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

func toGroup(g *models.Group) Group {
	members := make([]Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = Member{UserID: m.UserID, DisplayName: m.DisplayName, JoinedAt: m.JoinedAt}
	}
	return Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

func toExpense(e *models.Expense) Expense {
	return Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.Cents(),
		PaidByID:    e.PaidByID,
		Mode:        e.Mode,
		Category:    e.Category,
		Date:        e.Date,
		Splits:      e.Splits,
		CreatedAt:   e.CreatedAt,
	}
}

func fromExpense(e Expense) *models.Expense {
	return &models.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      money.FromCents(e.Amount),
		PaidByID:    e.PaidByID,
		Mode:        e.Mode,
		Category:    e.Category,
		Date:        e.Date,
		Splits:      e.Splits,
	}
}

func toSettlement(s *models.Settlement) Settlement {
	return Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount.Cents(),
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
		SettledAt:  s.SettledAt,
		Note:       s.Note,
	}
}

func toBalance(b ledger.GroupBalance, v calculator.Validator) Balance {
	return Balance{
		UserID:    b.UserID,
		Name:      b.Name,
		Balance:   b.Balance.Cents(),
		TotalPaid: b.TotalPaid.Cents(),
		TotalOwed: b.TotalOwed.Cents(),
		Former:    b.Former,
		Display:   v.Format(b.Balance),
	}
}
