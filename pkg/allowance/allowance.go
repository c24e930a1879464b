package allowance

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutFrequency string

const (
	Monthly      PayoutFrequency = "MONTHLY"
	EndOfProgram PayoutFrequency = "END_OF_PROGRAM"
)

// Rules is the allowance configuration record. It is read before every computation
// and passed to Calculate explicitly.
type Rules struct {
	PayoutFrequency PayoutFrequency
	// WfoRate is the amount paid per work-from-office day.
	WfoRate decimal.Decimal
	// WfhRate is the amount paid per work-from-home day.
	WfhRate    decimal.Decimal
	ApplyTax   bool
	TaxPercent decimal.Decimal
}

type Breakdown struct {
	Wfo    int
	Wfh    int
	Leaves int
}

func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Wfo:    b.Wfo + other.Wfo,
		Wfh:    b.Wfh + other.Wfh,
		Leaves: b.Leaves + other.Leaves,
	}
}

// HasWorkDays reports whether any paid (office or home) days were recorded.
func (b Breakdown) HasWorkDays() bool {
	return b.Wfo != 0 || b.Wfh != 0
}

type Actor string

const (
	Supervisor Actor = "SUPERVISOR"
	Admin      Actor = "ADMIN"
)

type Adjustment struct {
	Amount     decimal.Decimal
	Note       string
	ActorId    int
	AdjustedAt time.Time
}

type ClaimStatus string

const (
	StatusPending  ClaimStatus = "PENDING"
	StatusApproved ClaimStatus = "APPROVED"
	StatusPaid     ClaimStatus = "PAID"
)

type Claim struct {
	InternId  int
	PeriodKey PeriodKey
	// Breakdown is the attendance snapshot the computed amount was derived from.
	Breakdown Breakdown
	// ComputedAmount is the calculator output, kept for audit.
	ComputedAmount decimal.Decimal
	// ResolvedAmount is the amount that gets paid.
	ResolvedAmount       decimal.Decimal
	SupervisorAdjustment *Adjustment
	AdminAdjustment      *Adjustment
	Status               ClaimStatus
	PaymentDate          *time.Time
	UpdatedAt            time.Time
}

// NewClaim returns the zero-amount claim materialized the first time a period is requested.
func NewClaim(id ClaimId) Claim {
	return Claim{
		InternId:       id.InternId,
		PeriodKey:      id.PeriodKey,
		ComputedAmount: decimal.Zero,
		ResolvedAmount: decimal.Zero,
		Status:         StatusPending,
	}
}

func (c Claim) Id() ClaimId {
	return ClaimId{InternId: c.InternId, PeriodKey: c.PeriodKey}
}

func (c Claim) IsPaid() bool {
	return c.Status == StatusPaid
}

// Adjustment returns the adjustment slot owned by the given actor.
func (c Claim) Adjustment(actor Actor) *Adjustment {
	if actor == Admin {
		return c.AdminAdjustment
	}
	return c.SupervisorAdjustment
}

// WithAdjustment returns a copy of the claim with the actor's slot replaced. The other slot is untouched.
func (c Claim) WithAdjustment(actor Actor, adjustment Adjustment) Claim {
	if actor == Admin {
		c.AdminAdjustment = &adjustment
	} else {
		c.SupervisorAdjustment = &adjustment
	}
	return c
}

// Wallet is the lifetime aggregate of all claims of an intern. It is only ever
// written as a whole by a completed wallet sync.
type Wallet struct {
	InternId            int
	TotalComputedAmount decimal.Decimal
	TotalResolvedAmount decimal.Decimal
	TotalPaidAmount     decimal.Decimal
	TotalPendingAmount  decimal.Decimal
	TotalBreakdown      Breakdown
	ClaimCount          int
	SyncedAt            time.Time
}

type SyncStatus string

const (
	SyncRunning SyncStatus = "RUNNING"
	SyncDone    SyncStatus = "DONE"
	SyncError   SyncStatus = "ERROR"
)

type SyncLock struct {
	InternId int
	// RunId identifies the sync run holding the lock. Only that run may release it.
	RunId        string
	Status       SyncStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage *string
}
