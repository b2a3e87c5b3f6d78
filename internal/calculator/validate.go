package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// AmountTolerance is the largest difference between the sum of exact amounts
// and the expense total that still reconciles.
const AmountTolerance money.Money = 1

// Result is the outcome of validating a split set. Message is written for
// direct display to the person editing the expense.
type Result struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

func valid() Result             { return Result{IsValid: true} }
func invalid(msg string) Result { return Result{Message: msg} }

// Validator checks split sets and formats its messages for one locale and
// currency.
type Validator struct {
	Locale   string
	Currency string
}

// DefaultValidator formats messages as en-US dollars.
var DefaultValidator = Validator{Locale: money.DefaultLocale, Currency: money.DefaultCurrency}

// Validate checks splits against total with DefaultValidator.
func Validate(total money.Money, mode models.SplitMode, splits []models.Split) Result {
	return DefaultValidator.Validate(total, mode, splits)
}

// Format renders m in the validator's locale and currency.
func (v Validator) Format(m money.Money) string {
	return m.Format(v.Locale, v.Currency)
}

// Validate decides whether splits reconcile to total under mode:
//   - percentage: authoritative percentages sum to 100 within PercentTolerance
//   - exact: amounts sum to total within AmountTolerance
//   - equal: amounts sum to total exactly and differ by at most one cent
func (v Validator) Validate(total money.Money, mode models.SplitMode, splits []models.Split) Result {
	if r := checkStructure(mode, splits); !r.IsValid {
		return r
	}

	switch mode {
	case models.ModePercentage:
		sum := decimal.Zero
		for _, s := range splits {
			pct, _ := s.Share.Percent()
			sum = sum.Add(pct)
		}
		if sum.Sub(hundred).Abs().GreaterThan(PercentTolerance) {
			return invalid(fmt.Sprintf("Percentages add up to %s%%, not 100%%.", sum.StringFixed(1)))
		}
		return valid()

	case models.ModeExact:
		diff := Remaining(total, splits)
		if diff.Abs() <= AmountTolerance {
			return valid()
		}
		if diff.IsPositive() {
			return invalid(fmt.Sprintf("Amounts are %s less than the total.", v.Format(diff)))
		}
		return invalid(fmt.Sprintf("Amounts are %s more than the total.", v.Format(diff.Abs())))

	case models.ModeEqual:
		if !Remaining(total, splits).IsZero() {
			return invalid(fmt.Sprintf("Equal shares add up to %s, not %s.", v.Format(Sum(splits)), v.Format(total)))
		}
		lo, hi := splits[0].Amount, splits[0].Amount
		for _, s := range splits[1:] {
			if s.Amount < lo {
				lo = s.Amount
			}
			if s.Amount > hi {
				hi = s.Amount
			}
		}
		if hi.Sub(lo) > 1 {
			return invalid("Equal shares differ by more than one cent.")
		}
		return valid()
	}
	return invalid(fmt.Sprintf("Unknown split mode %v.", mode))
}

// checkStructure rejects split sets no mode can accept.
func checkStructure(mode models.SplitMode, splits []models.Split) Result {
	if len(splits) == 0 {
		return invalid("Choose at least one person to split with.")
	}
	seen := make(map[string]bool, len(splits))
	for _, s := range splits {
		if seen[s.UserID] {
			return invalid(fmt.Sprintf("%s appears more than once.", s.UserID))
		}
		seen[s.UserID] = true
		if s.Amount.IsNegative() {
			return invalid(fmt.Sprintf("The amount for %s cannot be negative.", s.UserID))
		}
		if s.Share == nil || s.Share.Mode() != mode {
			return invalid(fmt.Sprintf("The share for %s does not match the %s split.", s.UserID, mode))
		}
		if pct, ok := s.Share.Percent(); ok && pct.IsNegative() {
			return invalid(fmt.Sprintf("The percentage for %s cannot be negative.", s.UserID))
		}
	}
	return valid()
}

// RemainingLabel is the live hint shown while exact amounts are edited:
// "$4.50 remaining", "$4.50 over assigned", or "" when fully assigned.
func (v Validator) RemainingLabel(total money.Money, splits []models.Split) string {
	diff := Remaining(total, splits)
	switch {
	case diff.IsPositive():
		return v.Format(diff) + " remaining"
	case diff.IsNegative():
		return v.Format(diff.Abs()) + " over assigned"
	}
	return ""
}

// RemainingPercent is 100 minus the sum of authoritative percentages.
func RemainingPercent(splits []models.Split) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		if s.Share == nil {
			continue
		}
		if pct, ok := s.Share.Percent(); ok {
			sum = sum.Add(pct)
		}
	}
	return hundred.Sub(sum)
}
