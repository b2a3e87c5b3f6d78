package calculator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func amounts(splits []models.Split) []money.Money {
	out := make([]money.Money, len(splits))
	for i, s := range splits {
		out[i] = s.Amount
	}
	return out
}

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentSplits(total money.Money, byUser ...any) []models.Split {
	var splits []models.Split
	for i := 0; i < len(byUser); i += 2 {
		p := pct(byUser[i+1].(string))
		splits = append(splits, models.Split{
			UserID: byUser[i].(string),
			Amount: total.MulPercent(p),
			Share:  models.PercentShare{Value: p},
		})
	}
	return splits
}

func TestCalculate_Equal(t *testing.T) {
	tests := []struct {
		name    string
		total   money.Money
		members []string
		want    []money.Money
	}{
		{
			name:    "100 dollars three ways",
			total:   10000,
			members: []string{"alice", "bob", "carol"},
			want:    []money.Money{3334, 3333, 3333},
		},
		{
			name:    "remainder follows user id, not input order",
			total:   10000,
			members: []string{"carol", "alice", "bob"},
			want:    []money.Money{3333, 3334, 3333},
		},
		{
			name:    "one cent remainder goes to lowest user id",
			total:   201,
			members: []string{"d", "c", "b", "a"},
			want:    []money.Money{50, 50, 50, 51},
		},
		{
			name:    "single member takes everything",
			total:   999,
			members: []string{"alice"},
			want:    []money.Money{999},
		},
		{
			name:    "zero total while drafting",
			total:   0,
			members: []string{"alice", "bob"},
			want:    []money.Money{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := Calculate(tt.total, models.ModeEqual, tt.members, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(splits))
			assert.Equal(t, tt.total, Sum(splits))
			for _, s := range splits {
				_, authoritative := s.Share.Percent()
				assert.False(t, authoritative, "equal-mode percentage is informational")
			}
		})
	}
}

func TestCalculate_EqualInformationalPercentage(t *testing.T) {
	splits, err := Calculate(10000, models.ModeEqual, []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	for _, s := range splits {
		p := s.Percentage()
		require.NotNil(t, p)
		assert.Equal(t, "33.33", p.String())
	}
}

func TestCalculate_Errors(t *testing.T) {
	_, err := Calculate(-1, models.ModeEqual, []string{"a"}, nil)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = Calculate(100, models.ModeEqual, nil, nil)
	assert.Error(t, err)

	_, err = Calculate(100, models.ModeEqual, []string{"a", "a"}, nil)
	assert.Error(t, err)

	_, err = Calculate(100, models.SplitMode(42), []string{"a"}, nil)
	assert.Error(t, err)

	_, err = Calculate(100, models.ModeExact, []string{"a"}, []models.Split{{UserID: "a", Amount: -5, Share: models.ExactShare{}}})
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestEqualSplitProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		n := rng.Intn(25) + 1
		total := money.FromCents(rng.Int63n(10_000_000) + 1)
		members := make([]string, n)
		for j := range members {
			members[j] = string(rune('A'+j%26)) + decimal.NewFromInt(int64(rng.Intn(1000)+j*1000)).String()
		}

		first, err := Calculate(total, models.ModeEqual, members, nil)
		require.NoError(t, err)
		second, err := Calculate(total, models.ModeEqual, members, nil)
		require.NoError(t, err)

		require.Len(t, first, n)
		assert.Equal(t, total, Sum(first))
		assert.Equal(t, amounts(first), amounts(second), "same input must give same allocation")

		floor := total.Cents() / int64(n)
		for _, s := range first {
			assert.True(t, s.Amount.Cents() == floor || s.Amount.Cents() == floor+1,
				"share %d not within a cent of %d/%d", s.Amount, total, n)
		}
		assert.True(t, Validate(total, models.ModeEqual, first).IsValid)
	}
}

func TestCalculate_Percentage(t *testing.T) {
	prior := percentSplits(5000, "alice", "60", "bob", "40")

	splits, err := Calculate(5000, models.ModePercentage, []string{"alice", "bob"}, prior)
	require.NoError(t, err)
	assert.Equal(t, []money.Money{3000, 2000}, amounts(splits))

	t.Run("rounding drift is absorbed", func(t *testing.T) {
		prior := percentSplits(100, "a", "33.33", "b", "33.33", "c", "33.34")
		splits, err := Calculate(100, models.ModePercentage, []string{"a", "b", "c"}, prior)
		require.NoError(t, err)
		assert.Equal(t, money.Money(100), Sum(splits))
	})

	t.Run("no usable prior resets to equal percentages", func(t *testing.T) {
		splits, err := Calculate(9000, models.ModePercentage, []string{"a", "b", "c"}, nil)
		require.NoError(t, err)
		assert.Equal(t, money.Money(9000), Sum(splits))
		total := decimal.Zero
		for _, s := range splits {
			p, ok := s.Share.Percent()
			assert.True(t, ok)
			total = total.Add(p)
		}
		assert.True(t, total.Equal(pct("100")))
	})

	t.Run("member change resets percentages", func(t *testing.T) {
		splits, err := Calculate(5000, models.ModePercentage, []string{"alice", "bob", "carol"}, prior)
		require.NoError(t, err)
		p, _ := splits[2].Share.Percent()
		assert.Equal(t, "33.34", p.String())
		assert.Equal(t, money.Money(5000), Sum(splits))
	})

	t.Run("total change keeps valid percentages", func(t *testing.T) {
		splits, err := Calculate(10000, models.ModePercentage, []string{"alice", "bob"}, prior)
		require.NoError(t, err)
		assert.Equal(t, []money.Money{6000, 4000}, amounts(splits))
	})

	t.Run("percentages off by more than tolerance reset", func(t *testing.T) {
		bad := percentSplits(5000, "alice", "70", "bob", "40")
		splits, err := Calculate(5000, models.ModePercentage, []string{"alice", "bob"}, bad)
		require.NoError(t, err)
		assert.Equal(t, []money.Money{2500, 2500}, amounts(splits))
	})
}

func TestEqualPercentages(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 12, 150, 190, 600, 10_001} {
		members := make([]string, n)
		for i := range members {
			members[i] = fmt.Sprintf("m%05d", i)
		}
		pcts := EqualPercentages(members)
		require.Len(t, pcts, n)

		sum := decimal.Zero
		lo, hi := pcts[members[0]], pcts[members[0]]
		for _, p := range pcts {
			assert.False(t, p.IsNegative(), "n=%d", n)
			sum = sum.Add(p)
			lo, hi = decimal.Min(lo, p), decimal.Max(hi, p)
		}
		assert.True(t, sum.Equal(pct("100")), "n=%d sums to %s", n, sum)
		assert.True(t, hi.Sub(lo).LessThanOrEqual(pct("0.01")), "n=%d spread %s..%s", n, lo, hi)
	}

	t.Run("190 members split cleanly", func(t *testing.T) {
		members := make([]string, 190)
		for i := range members {
			members[i] = fmt.Sprintf("m%03d", i)
		}
		splits, err := Calculate(10000, models.ModePercentage, members, nil)
		require.NoError(t, err)
		assert.Equal(t, money.Money(10000), Sum(splits))
		for _, s := range splits {
			assert.False(t, s.Amount.IsNegative(), s.UserID)
		}
		assert.True(t, Validate(10000, models.ModePercentage, splits).IsValid)
	})
}

func TestWithExactAmount(t *testing.T) {
	splits := []models.Split{
		{UserID: "alice", Amount: 1000, Share: models.ExactShare{}},
		{UserID: "bob", Amount: 500, Share: models.ExactShare{}, Settled: true},
	}

	got, err := WithExactAmount(splits, "bob", 2000)
	require.NoError(t, err)
	assert.Equal(t, []money.Money{1000, 2000}, amounts(got))
	assert.True(t, got[1].Settled)
	assert.Equal(t, money.Money(500), splits[1].Amount, "input untouched")

	_, err = WithExactAmount(splits, "bob", -1)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = WithExactAmount(splits, "mallory", 100)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAdjustPercentage(t *testing.T) {
	splits := percentSplits(5000, "alice", "60", "bob", "40")

	t.Run("request above what is left is clamped", func(t *testing.T) {
		got, err := AdjustPercentage(5000, splits, "alice", pct("90"))
		require.NoError(t, err)
		p, _ := got[0].Share.Percent()
		assert.True(t, p.Equal(pct("60")), "got %s", p)
		assert.Equal(t, money.Money(3000), got[0].Amount)
		assert.Equal(t, money.Money(2000), got[1].Amount, "other members untouched")
	})

	t.Run("negative request floors at zero", func(t *testing.T) {
		got, err := AdjustPercentage(5000, splits, "bob", pct("-5"))
		require.NoError(t, err)
		p, _ := got[1].Share.Percent()
		assert.True(t, p.IsZero())
		assert.Equal(t, money.Zero, got[1].Amount)
	})

	t.Run("others already over 100 clamps to zero, never negative", func(t *testing.T) {
		over := percentSplits(5000, "alice", "70", "bob", "50", "carol", "0")
		got, err := AdjustPercentage(5000, over, "carol", pct("10"))
		require.NoError(t, err)
		p, _ := got[2].Share.Percent()
		assert.True(t, p.IsZero())
	})

	t.Run("input is not modified", func(t *testing.T) {
		_, err := AdjustPercentage(5000, splits, "alice", pct("10"))
		require.NoError(t, err)
		p, _ := splits[0].Share.Percent()
		assert.True(t, p.Equal(pct("60")))
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := AdjustPercentage(5000, splits, "mallory", pct("10"))
		assert.Error(t, err)
	})
}

func TestExactFromText(t *testing.T) {
	splits, err := ExactFromText([]string{"alice", "bob", "carol"}, map[string]string{
		"alice": "10.00",
		"bob":   "$15",
		"carol": "",
	})
	require.NoError(t, err)
	assert.Equal(t, []money.Money{1000, 1500, 0}, amounts(splits))
	assert.Nil(t, splits[0].Percentage())

	_, err = ExactFromText([]string{"alice"}, map[string]string{"alice": "ten"})
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestCalculate_ExactKeepsEnteredAmounts(t *testing.T) {
	prior, err := ExactFromText([]string{"alice", "bob"}, map[string]string{"alice": "10", "bob": "15"})
	require.NoError(t, err)

	splits, err := Calculate(5000, models.ModeExact, []string{"alice", "bob", "carol"}, prior)
	require.NoError(t, err)
	assert.Equal(t, []money.Money{1000, 1500, 0}, amounts(splits))
	assert.Equal(t, money.Money(2500), Remaining(5000, splits))
}

func TestReconcile(t *testing.T) {
	splits := []models.Split{
		{UserID: "bob", Amount: 1500, Share: models.ExactShare{}},
		{UserID: "alice", Amount: 1499, Share: models.ExactShare{}},
	}

	got := Reconcile(3000, "alice", splits)
	assert.Equal(t, []money.Money{1500, 1500}, amounts(got))
	assert.Equal(t, money.Money(1499), splits[1].Amount, "input untouched")

	got = Reconcile(3000, "zed", splits)
	assert.Equal(t, []money.Money{1500, 1500}, amounts(got), "falls back to lowest user id")

	got = Reconcile(3100, "alice", splits)
	assert.Equal(t, amounts(splits), amounts(got), "outside tolerance is left for the validator")
}
