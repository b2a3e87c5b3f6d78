package calculator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	hundred = decimal.NewFromInt(100)

	// PercentTolerance is how far percentages may drift from 100 and still
	// be accepted.
	PercentTolerance = decimal.RequireFromString("0.1")
)

// Calculate allocates total across members under mode and returns one split
// per member, in the order members were given.
//
// prior carries the caller's current allocation and is how percentage and
// exact input reach the calculator:
//   - equal: prior is ignored; the total is divided evenly and the remainder
//     cents go one each to the members with the lowest user IDs
//   - percentage: prior percentages are kept when they cover exactly these
//     members and sum to 100 (within PercentTolerance); otherwise every member
//     gets 100/n. Rounding drift is assigned cent by cent so the amounts sum
//     to total.
//   - exact: each member keeps its prior amount (zero if it had none). No
//     redistribution happens; see Remaining and Validate.
//
// The same call recomputes an allocation after the member list or total changed.
func Calculate(total money.Money, mode models.SplitMode, members []string, prior []models.Split) ([]models.Split, error) {
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total %s is negative", money.ErrInvalidAmount, total)
	}
	if err := checkMembers(members); err != nil {
		return nil, err
	}

	switch mode {
	case models.ModeEqual:
		return equalSplit(total, members), nil
	case models.ModePercentage:
		return percentageSplit(total, members, prior), nil
	case models.ModeExact:
		return exactSplit(members, prior)
	}
	return nil, fmt.Errorf("%w: unsupported split mode %v", models.ErrInvalidInput, mode)
}

func checkMembers(members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("%w: must have at least one member", models.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: member id cannot be empty", models.ErrInvalidInput)
		}
		if seen[m] {
			return fmt.Errorf("%w: duplicate member %q", models.ErrInvalidInput, m)
		}
		seen[m] = true
	}
	return nil
}

// rankByID returns each member's position in ascending user-ID order.
func rankByID(members []string) map[string]int {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	rank := make(map[string]int, len(sorted))
	for i, m := range sorted {
		rank[m] = i
	}
	return rank
}

func equalSplit(total money.Money, members []string) []models.Split {
	n := int64(len(members))
	base := money.FromCents(total.Cents() / n)
	remainder := int(total.Cents() % n)
	display := hundred.DivRound(decimal.NewFromInt(n), 2)
	rank := rankByID(members)

	splits := make([]models.Split, len(members))
	for i, m := range members {
		amount := base
		if rank[m] < remainder {
			amount = amount.Add(1)
		}
		splits[i] = models.Split{
			UserID: m,
			Amount: amount,
			Share:  models.EqualShare{Informational: display},
		}
	}
	return splits
}

// EqualPercentages returns 100/n for each member in hundredths of a percent,
// rounded down. The leftover hundredths go one each to the last members so
// the set sums to exactly 100 and no member drops below zero.
func EqualPercentages(members []string) map[string]decimal.Decimal {
	n := int64(len(members))
	each, residue := int64(10_000)/n, int64(10_000)%n

	pcts := make(map[string]decimal.Decimal, n)
	for i, m := range members {
		hundredths := each
		if n-1-int64(i) < residue {
			hundredths++
		}
		pcts[m] = decimal.New(hundredths, -2)
	}
	return pcts
}

// priorPercentages returns the authoritative percentages in prior if they
// cover exactly members and sum to 100 within tolerance.
func priorPercentages(members []string, prior []models.Split) (map[string]decimal.Decimal, bool) {
	if len(prior) != len(members) {
		return nil, false
	}
	pcts := make(map[string]decimal.Decimal, len(prior))
	for _, s := range prior {
		if s.Share == nil {
			return nil, false
		}
		pct, authoritative := s.Share.Percent()
		if !authoritative {
			return nil, false
		}
		pcts[s.UserID] = pct
	}
	sum := decimal.Zero
	for _, m := range members {
		pct, ok := pcts[m]
		if !ok {
			return nil, false
		}
		sum = sum.Add(pct)
	}
	if sum.Sub(hundred).Abs().GreaterThan(PercentTolerance) {
		return nil, false
	}
	return pcts, true
}

func percentageSplit(total money.Money, members []string, prior []models.Split) []models.Split {
	pcts, ok := priorPercentages(members, prior)
	if !ok {
		pcts = EqualPercentages(members)
	}

	splits := make([]models.Split, len(members))
	for i, m := range members {
		splits[i] = models.Split{
			UserID: m,
			Amount: total.MulPercent(pcts[m]),
			Share:  models.PercentShare{Value: pcts[m]},
		}
	}
	absorbDrift(total, splits, rankByID(members))
	return splits
}

// absorbDrift moves the rounding difference between total and the sum of
// splits one cent at a time, cycling through members from the lowest user ID.
// Members at zero percent never receive or give up a cent.
func absorbDrift(total money.Money, splits []models.Split, rank map[string]int) {
	drift := total.Sub(Sum(splits)).Cents()
	if drift == 0 {
		return
	}
	order := make([]int, 0, len(splits))
	for i, s := range splits {
		if pct, _ := s.Share.Percent(); pct.IsPositive() {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return
	}
	sort.Slice(order, func(a, b int) bool {
		return rank[splits[order[a]].UserID] < rank[splits[order[b]].UserID]
	})

	step := money.FromCents(1)
	if drift < 0 {
		step, drift = step.Neg(), -drift
	}
	for drift > 0 {
		moved := false
		for _, idx := range order {
			if drift == 0 {
				break
			}
			if step.IsNegative() && splits[idx].Amount.IsZero() {
				continue
			}
			splits[idx].Amount = splits[idx].Amount.Add(step)
			drift--
			moved = true
		}
		if !moved {
			return
		}
	}
}

func exactSplit(members []string, prior []models.Split) ([]models.Split, error) {
	entered := make(map[string]money.Money, len(prior))
	for _, s := range prior {
		if s.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: amount for %s is negative", money.ErrInvalidAmount, s.UserID)
		}
		entered[s.UserID] = s.Amount
	}
	splits := make([]models.Split, len(members))
	for i, m := range members {
		splits[i] = models.Split{UserID: m, Amount: entered[m], Share: models.ExactShare{}}
	}
	return splits, nil
}

// ExactFromText parses entered currency text per member into an exact
// allocation. Blank entries count as zero; members missing from entered get
// zero too.
func ExactFromText(members []string, entered map[string]string) ([]models.Split, error) {
	if err := checkMembers(members); err != nil {
		return nil, err
	}
	splits := make([]models.Split, len(members))
	for i, m := range members {
		amount := money.Zero
		if text := strings.TrimSpace(entered[m]); text != "" {
			parsed, err := money.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("amount for %s: %w", m, err)
			}
			amount = parsed
		}
		splits[i] = models.Split{UserID: m, Amount: amount, Share: models.ExactShare{}}
	}
	return splits, nil
}

// AdjustPercentage sets one member's percentage in a percentage split.
// The requested value is clamped to [0, 100 - sum of everyone else] so the
// set can never exceed 100%, and the member's amount is recomputed from the
// clamped value. Other members are untouched. splits is not modified.
func AdjustPercentage(total money.Money, splits []models.Split, userID string, requested decimal.Decimal) ([]models.Split, error) {
	idx := -1
	others := decimal.Zero
	for i, s := range splits {
		if s.UserID == userID {
			idx = i
			continue
		}
		if s.Share != nil {
			if pct, ok := s.Share.Percent(); ok {
				others = others.Add(pct)
			}
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s is not part of this split", models.ErrInvalidInput, userID)
	}

	remaining := decimal.Max(hundred.Sub(others), decimal.Zero)
	clamped := decimal.Min(decimal.Max(requested, decimal.Zero), remaining)

	out := append([]models.Split(nil), splits...)
	out[idx] = models.Split{
		UserID:  userID,
		Amount:  total.MulPercent(clamped),
		Share:   models.PercentShare{Value: clamped},
		Settled: splits[idx].Settled,
	}
	return out, nil
}

// WithExactAmount replaces one member's amount in an exact split.
// splits is not modified.
func WithExactAmount(splits []models.Split, userID string, amount money.Money) ([]models.Split, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount for %s is negative", money.ErrInvalidAmount, userID)
	}
	out := append([]models.Split(nil), splits...)
	for i := range out {
		if out[i].UserID == userID {
			out[i] = models.Split{UserID: userID, Amount: amount, Share: models.ExactShare{}, Settled: out[i].Settled}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not part of this split", models.ErrInvalidInput, userID)
}

// Sum adds up split amounts.
func Sum(splits []models.Split) money.Money {
	var total money.Money
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}

// Remaining is the signed amount still to assign: positive when the splits
// fall short of total, negative when they are over-assigned.
func Remaining(total money.Money, splits []models.Split) money.Money {
	return total.Sub(Sum(splits))
}

// Reconcile absorbs a residual of at most AmountTolerance into the payer's
// split (or the lowest user ID when the payer does not participate) so the
// splits sum exactly to total. Larger residuals are returned untouched for
// the validator to report. splits is not modified.
func Reconcile(total money.Money, payerID string, splits []models.Split) []models.Split {
	diff := Remaining(total, splits)
	if diff.IsZero() || diff.Abs() > AmountTolerance || len(splits) == 0 {
		return splits
	}
	out := append([]models.Split(nil), splits...)
	target := -1
	for i, s := range out {
		if s.UserID == payerID {
			target = i
			break
		}
		if target < 0 || s.UserID < out[target].UserID {
			target = i
		}
	}
	if adjusted := out[target].Amount.Add(diff); !adjusted.IsNegative() {
		out[target].Amount = adjusted
	}
	return out
}
