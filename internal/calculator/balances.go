package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
)

// SettlementPolicy selects which settlements move balances.
type SettlementPolicy int

const (
	// CompletedOnly applies only completed settlements. A pending settlement
	// is an unconfirmed intent and leaves balances untouched.
	CompletedOnly SettlementPolicy = iota
	// IncludePending also applies pending settlements, for an optimistic view.
	IncludePending
)

// MemberBalance is the balance information for one group member.
type MemberBalance struct {
	UserID    string
	Net       money.Money // Positive = is owed money, negative = owes money
	TotalPaid money.Money // Expenses fronted plus settlements paid out
	TotalOwed money.Money // Expense shares plus settlements received
}

// Balances maps user ID to signed net balance.
type Balances map[string]money.Money

// Sum is always zero for balances produced by Aggregate.
func (b Balances) Sum() money.Money {
	var total money.Money
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// DebtEdge is a single payment that would settle part of the group.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount money.Money
}

// Aggregate folds a group's expenses and settlements into net balances.
//
// Algorithm:
//   - every member in memberIDs starts at zero
//   - for each expense: payer is credited the full amount, each split's
//     member is debited its share (a paying participant nets to their own
//     share automatically)
//   - for each applicable settlement: the payer's balance rises by the
//     amount and the receiver's falls by it
//
// Users referenced by expenses or settlements but no longer in memberIDs keep
// their balance in the result so the total stays zero.
func Aggregate(memberIDs []string, expenses []models.Expense, settlements []models.Settlement, policy SettlementPolicy) Balances {
	summaries := Summarize(memberIDs, expenses, settlements, policy)
	balances := make(Balances, len(summaries))
	for _, s := range summaries {
		balances[s.UserID] = s.Net
	}
	return balances
}

// Summarize is Aggregate with the paid/owed breakdown per member, sorted by
// user ID.
func Summarize(memberIDs []string, expenses []models.Expense, settlements []models.Settlement, policy SettlementPolicy) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(memberIDs))
	get := func(userID string) *MemberBalance {
		b, ok := balances[userID]
		if !ok {
			b = &MemberBalance{UserID: userID}
			balances[userID] = b
		}
		return b
	}
	for _, id := range memberIDs {
		get(id)
	}

	for _, e := range expenses {
		get(e.PaidByID).TotalPaid += e.Amount
		for _, s := range e.Splits {
			get(s.UserID).TotalOwed += s.Amount
		}
	}

	for _, st := range settlements {
		if policy == CompletedOnly && !st.IsCompleted() {
			continue
		}
		for userID, delta := range settlement.Adjustment(st) {
			if delta.IsPositive() {
				get(userID).TotalPaid += delta
			} else {
				get(userID).TotalOwed += delta.Abs()
			}
		}
	}

	out := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.TotalPaid.Sub(b.TotalOwed)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// GroupTotal is the sum of all expense amounts, ignoring splits and
// settlements. It equals the sum of every member's TotalOwed from expenses
// when each expense is fully split.
func GroupTotal(expenses []models.Expense) money.Money {
	var total money.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SimplifyDebts turns net balances into a short list of payments.
// Greedy: the largest debtor pays the largest creditor until one side is
// cleared. Ties break on user ID so the result is deterministic.
func SimplifyDebts(balances Balances) []DebtEdge {
	type entry struct {
		userID string
		amount money.Money
	}
	var creditors, debtors []entry
	for id, net := range balances {
		switch {
		case net.IsPositive():
			creditors = append(creditors, entry{id, net})
		case net.IsNegative():
			debtors = append(debtors, entry{id, net.Abs()})
		}
	}
	byAmount := func(list []entry) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].amount != list[j].amount {
				return list[i].amount > list[j].amount
			}
			return list[i].userID < list[j].userID
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}
		edges = append(edges, DebtEdge{
			From:   debtors[i].userID,
			To:     creditors[j].userID,
			Amount: amount,
		})
		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return edges
}
