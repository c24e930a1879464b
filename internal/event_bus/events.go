package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ClaimAdjustedEvent         EventType = "allowance.claim.adjusted"
	ClaimPaidEvent             EventType = "allowance.claim.paid"
	AllowanceRulesUpdatedEvent EventType = "allowance.rules.updated"
)

type ClaimAdjusted struct {
	InternId  int
	PeriodKey string
	// Actor is the slot that was written, SUPERVISOR or ADMIN.
	Actor          string
	ActorId        int
	Amount         decimal.Decimal
	ResolvedAmount decimal.Decimal
	AdjustedAt     time.Time
}

type ClaimPaid struct {
	InternId       int
	PeriodKey      string
	ResolvedAmount decimal.Decimal
	PaymentDate    time.Time
}

type AllowanceRulesUpdated struct {
	PayoutFrequency string
	WfoRate         decimal.Decimal
	WfhRate         decimal.Decimal
	ApplyTax        bool
	TaxPercent      decimal.Decimal
}
