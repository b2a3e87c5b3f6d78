package calculator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func exact(byUser map[string]money.Money, order ...string) []models.Split {
	splits := make([]models.Split, len(order))
	for i, u := range order {
		splits[i] = models.Split{UserID: u, Amount: byUser[u], Share: models.ExactShare{}}
	}
	return splits
}

func TestValidate_Exact(t *testing.T) {
	tests := []struct {
		name      string
		total     money.Money
		splits    []models.Split
		wantValid bool
		wantMsg   string
	}{
		{
			name:    "short of the total",
			total:   3000,
			splits:  exact(map[string]money.Money{"a": 1000, "b": 1500}, "a", "b"),
			wantMsg: "Amounts are $5.00 less than the total.",
		},
		{
			name:    "over the total",
			total:   3000,
			splits:  exact(map[string]money.Money{"a": 2000, "b": 1450}, "a", "b"),
			wantMsg: "Amounts are $4.50 more than the total.",
		},
		{
			name:      "exact match",
			total:     3000,
			splits:    exact(map[string]money.Money{"a": 1000, "b": 2000}, "a", "b"),
			wantValid: true,
		},
		{
			name:      "one cent off is tolerated",
			total:     3000,
			splits:    exact(map[string]money.Money{"a": 1000, "b": 1999}, "a", "b"),
			wantValid: true,
		},
		{
			name:    "two cents off is not",
			total:   3000,
			splits:  exact(map[string]money.Money{"a": 1000, "b": 1998}, "a", "b"),
			wantMsg: "Amounts are $0.02 less than the total.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.total, models.ModeExact, tt.splits)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestValidate_Percentage(t *testing.T) {
	ok := percentSplits(5000, "a", "33.3", "b", "33.3", "c", "33.3")
	assert.True(t, Validate(5000, models.ModePercentage, ok).IsValid, "99.9 is within tolerance")

	short := percentSplits(5000, "a", "50", "b", "40")
	got := Validate(5000, models.ModePercentage, short)
	assert.False(t, got.IsValid)
	assert.Equal(t, "Percentages add up to 90.0%, not 100%.", got.Message)

	over := percentSplits(5000, "a", "60", "b", "40.2")
	assert.False(t, Validate(5000, models.ModePercentage, over).IsValid)
}

func TestValidate_Equal(t *testing.T) {
	splits, err := Calculate(10000, models.ModeEqual, []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.True(t, Validate(10000, models.ModeEqual, splits).IsValid)

	tampered := append([]models.Split(nil), splits...)
	tampered[0].Amount = 3300
	tampered[1].Amount = 3367
	got := Validate(10000, models.ModeEqual, tampered)
	assert.False(t, got.IsValid)
	assert.Equal(t, "Equal shares differ by more than one cent.", got.Message)

	assert.False(t, Validate(10001, models.ModeEqual, splits).IsValid)
}

func TestValidate_Structure(t *testing.T) {
	assert.False(t, Validate(100, models.ModeExact, nil).IsValid)

	dup := exact(map[string]money.Money{"a": 50}, "a", "a")
	assert.False(t, Validate(100, models.ModeExact, dup).IsValid)

	neg := exact(map[string]money.Money{"a": 150, "b": -50}, "a", "b")
	assert.False(t, Validate(100, models.ModeExact, neg).IsValid)

	// percentage field must not be trusted in equal mode
	wrongShare := percentSplits(100, "a", "50", "b", "50")
	got := Validate(100, models.ModeEqual, wrongShare)
	assert.False(t, got.IsValid)
	assert.Contains(t, got.Message, "does not match the equal split")
}

func TestValidator_RemainingLabel(t *testing.T) {
	v := DefaultValidator
	assert.Equal(t, "$4.50 remaining", v.RemainingLabel(1000, exact(map[string]money.Money{"a": 550}, "a")))
	assert.Equal(t, "$4.50 over assigned", v.RemainingLabel(1000, exact(map[string]money.Money{"a": 1450}, "a")))
	assert.Equal(t, "", v.RemainingLabel(1000, exact(map[string]money.Money{"a": 1000}, "a")))
}

func TestValidator_Locale(t *testing.T) {
	v := Validator{Locale: "en-GB", Currency: "GBP"}
	got := v.Validate(3000, models.ModeExact, exact(map[string]money.Money{"a": 2500}, "a"))
	assert.Equal(t, "Amounts are £5.00 less than the total.", got.Message)
}

func TestRemainingPercent(t *testing.T) {
	assert.Equal(t, "10", RemainingPercent(percentSplits(100, "a", "50", "b", "40")).String())
}

// Anything the calculator produces must pass the validator.
func TestCalculatorOutputAlwaysValidates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	modes := []models.SplitMode{models.ModeEqual, models.ModePercentage}
	for i := 0; i < 300; i++ {
		n := rng.Intn(12) + 1
		if i%5 == 0 {
			n = rng.Intn(600) + 1
		}
		members := make([]string, n)
		for j := range members {
			members[j] = fmt.Sprintf("m%03d", j)
		}
		total := money.FromCents(rng.Int63n(1_000_000) + 1)
		mode := modes[rng.Intn(len(modes))]

		splits, err := Calculate(total, mode, members, nil)
		require.NoError(t, err)
		res := Validate(total, mode, splits)
		assert.True(t, res.IsValid, "mode %s total %d n %d: %s", mode, total, n, res.Message)
		assert.Equal(t, total, Sum(splits))
	}

	prior := exact(map[string]money.Money{"a": 1250, "b": 1750}, "a", "b")
	splits, err := Calculate(3000, models.ModeExact, []string{"a", "b"}, prior)
	require.NoError(t, err)
	assert.True(t, Validate(3000, models.ModeExact, splits).IsValid)
}
