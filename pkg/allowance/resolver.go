package allowance

import "github.com/shopspring/decimal"

// Resolve returns the authoritative amount of a claim given a freshly computed amount.
//
// Precedence:
//  1. a PAID claim keeps its stored amount;
//  2. with both adjustments present the later one wins, the admin on equal timestamps;
//  3. a single adjustment wins;
//  4. without adjustments a claim that was never computed (stored 0 but paid days in its
//     breakdown) takes the computed amount, any other claim keeps its stored amount.
func Resolve(computed decimal.Decimal, claim Claim) decimal.Decimal {
	if claim.IsPaid() {
		return claim.ResolvedAmount
	}
	if winner := WinningAdjustment(claim); winner != nil {
		return winner.Amount
	}
	if claim.ResolvedAmount.IsZero() && claim.Breakdown.HasWorkDays() {
		return computed
	}
	return claim.ResolvedAmount
}

// WinningAdjustment returns the adjustment that decides the claim amount, or nil when there is none.
func WinningAdjustment(claim Claim) *Adjustment {
	supervisor, admin := claim.SupervisorAdjustment, claim.AdminAdjustment
	switch {
	case supervisor != nil && admin != nil:
		if supervisor.AdjustedAt.After(admin.AdjustedAt) {
			return supervisor
		}
		return admin
	case admin != nil:
		return admin
	default:
		return supervisor
	}
}

// WinningActor returns which slot decides the claim amount, and false when neither is set.
func WinningActor(claim Claim) (Actor, bool) {
	winner := WinningAdjustment(claim)
	switch {
	case winner == nil:
		return "", false
	case winner == claim.AdminAdjustment:
		return Admin, true
	default:
		return Supervisor, true
	}
}
