package wallet

import (
	"time"

	"github.com/internly/internly/pkg/allowance"
	"github.com/shopspring/decimal"
)

type SyncResult struct {
	// AlreadyRunning is set when another sync held the intern's lock; nothing was written.
	AlreadyRunning bool
	Wallet         allowance.Wallet
}

// Fold aggregates claims into a wallet. Each claim contributes its amount as re-resolved from
// its stored computed amount and adjustments; paid claims contribute their frozen amount.
// Pending covers every claim that is not paid yet.
func Fold(internId int, claims []allowance.Claim, syncedAt time.Time) allowance.Wallet {
	wallet := allowance.Wallet{
		InternId:            internId,
		TotalComputedAmount: decimal.Zero,
		TotalResolvedAmount: decimal.Zero,
		TotalPaidAmount:     decimal.Zero,
		TotalPendingAmount:  decimal.Zero,
		SyncedAt:            syncedAt,
	}
	for _, claim := range claims {
		resolved := allowance.Resolve(claim.ComputedAmount, claim)

		wallet.TotalComputedAmount = wallet.TotalComputedAmount.Add(claim.ComputedAmount)
		wallet.TotalResolvedAmount = wallet.TotalResolvedAmount.Add(resolved)
		if claim.IsPaid() {
			wallet.TotalPaidAmount = wallet.TotalPaidAmount.Add(resolved)
		} else {
			wallet.TotalPendingAmount = wallet.TotalPendingAmount.Add(resolved)
		}
		wallet.TotalBreakdown = wallet.TotalBreakdown.Add(claim.Breakdown)
		wallet.ClaimCount++
	}
	return wallet
}
