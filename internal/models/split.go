package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// SplitMode is the allocation rule for an expense.
// The set is closed: every switch over it must handle all three modes.
type SplitMode uint8

const (
	ModeEqual SplitMode = iota + 1
	ModePercentage
	ModeExact
)

func (m SplitMode) String() string {
	switch m {
	case ModeEqual:
		return "equal"
	case ModePercentage:
		return "percentage"
	case ModeExact:
		return "exact"
	}
	return fmt.Sprintf("SplitMode(%d)", uint8(m))
}

// Valid reports whether m is one of the defined modes.
func (m SplitMode) Valid() bool {
	return m >= ModeEqual && m <= ModeExact
}

// ParseSplitMode maps "equal", "percentage" or "exact" to a SplitMode.
func ParseSplitMode(s string) (SplitMode, error) {
	switch s {
	case "equal":
		return ModeEqual, nil
	case "percentage":
		return ModePercentage, nil
	case "exact":
		return ModeExact, nil
	}
	return 0, fmt.Errorf("unknown split mode %q", s)
}

func (m SplitMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid split mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *SplitMode) UnmarshalText(b []byte) error {
	parsed, err := ParseSplitMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Share is the mode-specific part of a split. Amount on the owning Split is
// always the authoritative value; only a PercentShare carries an
// authoritative percentage.
type Share interface {
	Mode() SplitMode
	// Percent returns the percentage to show and whether it may be used
	// for reconciliation.
	Percent() (pct decimal.Decimal, authoritative bool)
	isShare()
}

// EqualShare is a member's share under an equal split. The percentage is
// 100/n for display only.
type EqualShare struct {
	Informational decimal.Decimal
}

// PercentShare is a member's share under a percentage split.
type PercentShare struct {
	Value decimal.Decimal
}

// ExactShare is a member's share under an exact split; it has no percentage.
type ExactShare struct{}

func (EqualShare) Mode() SplitMode   { return ModeEqual }
func (PercentShare) Mode() SplitMode { return ModePercentage }
func (ExactShare) Mode() SplitMode   { return ModeExact }

func (s EqualShare) Percent() (decimal.Decimal, bool)   { return s.Informational, false }
func (s PercentShare) Percent() (decimal.Decimal, bool) { return s.Value, true }
func (ExactShare) Percent() (decimal.Decimal, bool)     { return decimal.Zero, false }

func (EqualShare) isShare()   {}
func (PercentShare) isShare() {}
func (ExactShare) isShare()   {}

// NewShare rebuilds a share from its stored form. pct may be nil.
func NewShare(mode SplitMode, pct *decimal.Decimal) (Share, error) {
	switch mode {
	case ModeEqual:
		if pct == nil {
			return EqualShare{}, nil
		}
		return EqualShare{Informational: *pct}, nil
	case ModePercentage:
		if pct == nil {
			return nil, fmt.Errorf("percentage split requires a percentage")
		}
		return PercentShare{Value: *pct}, nil
	case ModeExact:
		return ExactShare{}, nil
	}
	return nil, fmt.Errorf("invalid split mode %d", uint8(mode))
}

// Split is one member's share of one expense.
type Split struct {
	// UserID is the member who owes this share.
	UserID string

	// Amount is what the member owes for the expense.
	Amount money.Money

	// Share carries the mode-specific detail.
	Share Share

	// Settled marks this share as paid back, independent of group settlements.
	Settled bool
}

// Percentage returns the stored percentage: the authoritative value in
// percentage mode, the informational 100/n in equal mode, nil in exact mode.
func (s Split) Percentage() *decimal.Decimal {
	if s.Share == nil {
		return nil
	}
	if _, ok := s.Share.(ExactShare); ok {
		return nil
	}
	pct, _ := s.Share.Percent()
	return &pct
}

type splitJSON struct {
	UserID     string           `json:"userId"`
	Amount     money.Money      `json:"amount"`
	Mode       SplitMode        `json:"mode"`
	Percentage *decimal.Decimal `json:"percentage"`
	Settled    bool             `json:"settled,omitempty"`
}

func (s Split) MarshalJSON() ([]byte, error) {
	mode := ModeExact
	if s.Share != nil {
		mode = s.Share.Mode()
	}
	return json.Marshal(splitJSON{
		UserID:     s.UserID,
		Amount:     s.Amount,
		Mode:       mode,
		Percentage: s.Percentage(),
		Settled:    s.Settled,
	})
}

func (s *Split) UnmarshalJSON(b []byte) error {
	var raw splitJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	share, err := NewShare(raw.Mode, raw.Percentage)
	if err != nil {
		return err
	}
	*s = Split{UserID: raw.UserID, Amount: raw.Amount, Share: share, Settled: raw.Settled}
	return nil
}
