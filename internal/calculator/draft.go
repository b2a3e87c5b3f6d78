package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// ExpenseDraft is an expense being edited. It is a plain value: Reduce never
// modifies its input, and the whole draft round-trips through JSON so a
// client can hold it between requests.
type ExpenseDraft struct {
	Description string           `json:"description"`
	Total       money.Money      `json:"total"`
	Mode        models.SplitMode `json:"mode"`
	PaidBy      string           `json:"paidBy"`
	Category    string           `json:"category,omitempty"`
	Date        int64            `json:"date,omitempty"`
	Members     []string         `json:"members"`
	Splits      []models.Split   `json:"splits"`

	// Dirty is set once the user has changed anything.
	Dirty bool `json:"dirty"`
}

// NewDraft starts a draft with a freshly calculated allocation.
func NewDraft(total money.Money, mode models.SplitMode, paidBy string, members []string) (ExpenseDraft, error) {
	splits, err := Calculate(total, mode, members, nil)
	if err != nil {
		return ExpenseDraft{}, err
	}
	return ExpenseDraft{
		Total:   total,
		Mode:    mode,
		PaidBy:  paidBy,
		Members: append([]string(nil), members...),
		Splits:  splits,
	}, nil
}

// Action is an edit applied to a draft by Reduce.
type Action interface {
	apply(d ExpenseDraft) (ExpenseDraft, error)
}

// SetTotal changes the expense amount and recomputes the allocation.
type SetTotal struct{ Total money.Money }

// SetMode switches the split mode. Exact mode keeps the current amounts;
// percentage mode starts from equal percentages.
type SetMode struct{ Mode models.SplitMode }

// SetMembers replaces the participant list and recomputes the allocation.
type SetMembers struct{ Members []string }

// SetPercentage adjusts one member's percentage, clamped to what is left.
type SetPercentage struct {
	UserID  string
	Percent decimal.Decimal
}

// SetExactAmount sets one member's amount from entered text.
type SetExactAmount struct {
	UserID string
	Text   string
}

// SetPayer changes who fronted the money.
type SetPayer struct{ UserID string }

// SetDetails changes the descriptive fields.
type SetDetails struct {
	Description string
	Category    string
	Date        int64
}

// Reduce applies a to d and returns the new draft. d is left unchanged; on
// error the returned draft is d.
func Reduce(d ExpenseDraft, a Action) (ExpenseDraft, error) {
	next, err := a.apply(d.clone())
	if err != nil {
		return d, err
	}
	next.Dirty = true
	return next, nil
}

func (d ExpenseDraft) clone() ExpenseDraft {
	d.Members = append([]string(nil), d.Members...)
	d.Splits = append([]models.Split(nil), d.Splits...)
	return d
}

func (a SetTotal) apply(d ExpenseDraft) (ExpenseDraft, error) {
	splits, err := Calculate(a.Total, d.Mode, d.Members, d.Splits)
	if err != nil {
		return d, err
	}
	d.Total, d.Splits = a.Total, splits
	return d, nil
}

func (a SetMode) apply(d ExpenseDraft) (ExpenseDraft, error) {
	if !a.Mode.Valid() {
		return d, fmt.Errorf("%w: invalid split mode %d", models.ErrInvalidInput, uint8(a.Mode))
	}
	splits, err := Calculate(d.Total, a.Mode, d.Members, d.Splits)
	if err != nil {
		return d, err
	}
	d.Mode, d.Splits = a.Mode, splits
	return d, nil
}

func (a SetMembers) apply(d ExpenseDraft) (ExpenseDraft, error) {
	splits, err := Calculate(d.Total, d.Mode, a.Members, d.Splits)
	if err != nil {
		return d, err
	}
	d.Members, d.Splits = append([]string(nil), a.Members...), splits
	return d, nil
}

func (a SetPercentage) apply(d ExpenseDraft) (ExpenseDraft, error) {
	if d.Mode != models.ModePercentage {
		return d, fmt.Errorf("%w: percentages can only be set in percentage mode", models.ErrInvalidInput)
	}
	splits, err := AdjustPercentage(d.Total, d.Splits, a.UserID, a.Percent)
	if err != nil {
		return d, err
	}
	d.Splits = splits
	return d, nil
}

func (a SetExactAmount) apply(d ExpenseDraft) (ExpenseDraft, error) {
	if d.Mode != models.ModeExact {
		return d, fmt.Errorf("%w: amounts can only be entered in exact mode", models.ErrInvalidInput)
	}
	amount := money.Zero
	if a.Text != "" {
		parsed, err := money.Parse(a.Text)
		if err != nil {
			return d, err
		}
		amount = parsed
	}
	splits, err := WithExactAmount(d.Splits, a.UserID, amount)
	if err != nil {
		return d, err
	}
	d.Splits = splits
	return d, nil
}

func (a SetPayer) apply(d ExpenseDraft) (ExpenseDraft, error) {
	d.PaidBy = a.UserID
	return d, nil
}

func (a SetDetails) apply(d ExpenseDraft) (ExpenseDraft, error) {
	d.Description, d.Category, d.Date = a.Description, a.Category, a.Date
	return d, nil
}

// Validation is the live validator result for the current allocation.
func (d ExpenseDraft) Validation() Result {
	return Validate(d.Total, d.Mode, d.Splits)
}

// CanLeave reports whether the editor may be closed without prompting:
// either nothing was changed or the allocation is valid.
func (d ExpenseDraft) CanLeave() bool {
	return !d.Dirty || d.Validation().IsValid
}

// Expense converts the draft into an expense for groupID. It does not
// validate; see Validation.
func (d ExpenseDraft) Expense(groupID string) models.Expense {
	return models.Expense{
		GroupID:     groupID,
		Description: d.Description,
		Amount:      d.Total,
		PaidByID:    d.PaidBy,
		Mode:        d.Mode,
		Category:    d.Category,
		Date:        d.Date,
		Splits:      append([]models.Split(nil), d.Splits...),
	}
}
