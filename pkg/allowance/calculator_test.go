package allowance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func rules(applyTax bool, taxPercent int64) Rules {
	return Rules{
		PayoutFrequency: Monthly,
		WfoRate:         decimal.NewFromInt(100),
		WfhRate:         decimal.NewFromInt(50),
		ApplyTax:        applyTax,
		TaxPercent:      decimal.NewFromInt(taxPercent),
	}
}

func TestCalculate(t *testing.T) {
	breakdown := Breakdown{Wfo: 10, Wfh: 5, Leaves: 2}

	t.Run("should apply tax and round half up", func(t *testing.T) {
		net := Calculate(breakdown, rules(true, 3))

		assert.Equal(t, "1213", net.String())
	})

	t.Run("should return gross without tax", func(t *testing.T) {
		net := Calculate(breakdown, rules(false, 3))

		assert.Equal(t, "1250", net.String())
	})

	t.Run("should be deterministic", func(t *testing.T) {
		first := Calculate(breakdown, rules(true, 3))
		second := Calculate(breakdown, rules(true, 3))

		assert.True(t, first.Equal(second))
	})

	t.Run("should not pay leave days", func(t *testing.T) {
		net := Calculate(Breakdown{Leaves: 20}, rules(false, 0))

		assert.True(t, net.IsZero())
	})

	t.Run("should pay nothing with full tax", func(t *testing.T) {
		net := Calculate(breakdown, rules(true, 100))

		assert.True(t, net.IsZero())
	})

	t.Run("should handle fractional rates", func(t *testing.T) {
		r := rules(true, 10)
		r.WfoRate = decimal.RequireFromString("33.35")

		// 3 * 33.35 = 100.05, 90% of it is 90.045
		net := Calculate(Breakdown{Wfo: 3}, r)

		assert.Equal(t, "90", net.String())
	})
}

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, rules(true, 3).Validate())
	assert.NoError(t, rules(true, 100).Validate())

	invalid := rules(true, 3)
	invalid.PayoutFrequency = "WEEKLY"
	assert.ErrorIs(t, invalid.Validate(), ErrValidation)

	assert.ErrorIs(t, rules(true, -1).Validate(), ErrValidation)
	assert.ErrorIs(t, rules(true, 101).Validate(), ErrValidation)

	negative := rules(false, 0)
	negative.WfoRate = decimal.NewFromInt(-100)
	assert.ErrorIs(t, negative.Validate(), ErrValidation)
}
