package allowance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate converts a breakdown into the net allowance amount. Leave days are not paid.
// With tax applied the net is rounded half-up to a whole unit and never negative.
func Calculate(breakdown Breakdown, rules Rules) decimal.Decimal {
	gross := rules.WfoRate.Mul(decimal.NewFromInt(int64(breakdown.Wfo))).
		Add(rules.WfhRate.Mul(decimal.NewFromInt(int64(breakdown.Wfh))))
	if !rules.ApplyTax {
		return gross
	}

	// gross * (100 - tax) / 100 keeps the intermediate value exact for percentages with few decimals
	net := gross.Mul(hundred.Sub(rules.TaxPercent)).Div(hundred).Round(0)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Validate checks the rules record before it is stored.
func (r Rules) Validate() error {
	if r.PayoutFrequency != Monthly && r.PayoutFrequency != EndOfProgram {
		return fmt.Errorf("%w: unknown payout frequency %q", ErrValidation, r.PayoutFrequency)
	}
	if r.WfoRate.IsNegative() || r.WfhRate.IsNegative() {
		return fmt.Errorf("%w: daily rates must not be negative", ErrValidation)
	}
	if r.TaxPercent.IsNegative() || r.TaxPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax percent must be between 0 and 100", ErrValidation)
	}
	return nil
}
