package allowance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/internly/internly/internal/event_bus"
	"github.com/internly/internly/internal/utils"
	"github.com/internly/internly/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// GetClaim returns the claim for the period, creating it on first request and refreshing its
	// breakdown and amounts from current attendance unless it is PAID.
	GetClaim(ctx context.Context, id ClaimId) (Claim, error)
	ListClaims(ctx context.Context, internId int) ([]Claim, error)
	UpsertAdjustment(ctx context.Context, id ClaimId, actor Actor, amount float64, note string) (Claim, error)
	Approve(ctx context.Context, id ClaimId) (Claim, error)
	MarkPaid(ctx context.Context, id ClaimId, paymentDate time.Time) (Claim, error)
}

// RulesReader provides the current allowance configuration record.
type RulesReader interface {
	GetRules(ctx context.Context) (Rules, error)
}

// BreakdownReader counts attendance for an intern over a claim period.
type BreakdownReader interface {
	Breakdown(ctx context.Context, internId int, periodKey PeriodKey) (Breakdown, error)
}

type ServiceImpl struct {
	repo       Repository
	rules      RulesReader
	attendance BreakdownReader
	eventBus   *event_bus.EventBus
	clock      utils.Clock
}

func NewService(repo Repository, rules RulesReader, attendance BreakdownReader, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	service := &ServiceImpl{repo, rules, attendance, eventBus, clock}
	event_bus.SubscribeTyped[event_bus.AllowanceRulesUpdated](
		eventBus,
		event_bus.AllowanceRulesUpdatedEvent,
		func(e event_bus.EventT[event_bus.AllowanceRulesUpdated]) error {
			// rules are read per computation; unpaid claims pick the change up on their next read
			log.Infof("allowance rules updated (frequency %s, wfo %s, wfh %s, tax %t/%s%%)",
				e.Data.PayoutFrequency, e.Data.WfoRate, e.Data.WfhRate, e.Data.ApplyTax, e.Data.TaxPercent)
			return nil
		},
	)
	return service
}

func (s *ServiceImpl) GetClaim(ctx context.Context, id ClaimId) (Claim, error) {
	rules, err := s.rules.GetRules(ctx)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to read allowance rules: %w", err)
	}

	existing, err := s.repo.GetClaim(ctx, id)
	switch {
	case errors.Is(err, ErrClaimNotFound):
		if !id.PeriodKey.MatchesFrequency(rules.PayoutFrequency) {
			return Claim{}, fmt.Errorf("%w: period %s does not match payout frequency %s", ErrValidation, id.PeriodKey, rules.PayoutFrequency)
		}
	case err != nil:
		return Claim{}, err
	case existing.IsPaid():
		return existing, nil
	}

	breakdown, err := s.attendance.Breakdown(ctx, id.InternId, id.PeriodKey)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to aggregate attendance for claim %s: %w", id, err)
	}
	computed := Calculate(breakdown, rules)

	var refreshed Claim
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.CreateClaim(ctx, NewClaim(id)); err != nil {
			return err
		}
		claim, err := repo.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if claim.IsPaid() {
			refreshed = claim
			return nil
		}

		candidate := claim
		candidate.Breakdown = breakdown
		candidate.ComputedAmount = computed
		if WinningAdjustment(candidate) == nil {
			// without adjustments the claim follows its attendance
			candidate.ResolvedAmount = computed
		}
		candidate.ResolvedAmount = Resolve(computed, candidate)
		if !claimAmountsChanged(claim, candidate) {
			refreshed = claim
			return nil
		}
		log.Debugf("refreshing claim %s: computed %s, resolved %s", id, candidate.ComputedAmount, candidate.ResolvedAmount)
		refreshed, err = repo.SaveClaim(ctx, candidate)
		return err
	})
	if err != nil {
		return Claim{}, err
	}
	return refreshed, nil
}

func (s *ServiceImpl) ListClaims(ctx context.Context, internId int) ([]Claim, error) {
	return s.repo.ListClaims(ctx, internId)
}

func (s *ServiceImpl) UpsertAdjustment(ctx context.Context, id ClaimId, actor Actor, amount float64, note string) (Claim, error) {
	actorId, err := user.CurrentId(ctx)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := validateAdjustment(actor, amount, note); err != nil {
		return Claim{}, err
	}

	claim, err := s.GetClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}

	adjustment := Adjustment{
		Amount:     decimal.NewFromFloat(amount),
		Note:       strings.TrimSpace(note),
		ActorId:    actorId,
		AdjustedAt: s.clock.Now(),
	}
	var adjusted Claim
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		updated, err := repo.UpsertAdjustment(ctx, id, actor, adjustment)
		if err != nil {
			return err
		}
		updated.ResolvedAmount = Resolve(updated.ComputedAmount, updated)
		adjusted, err = repo.SaveClaim(ctx, updated)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrImmutableClaim) {
			log.Errorf("failed to store %s adjustment for claim %s: %v", actor, id, err)
		}
		return Claim{}, err
	}

	s.publish(ctx, event_bus.ClaimAdjustedEvent, event_bus.ClaimAdjusted{
		InternId:       id.InternId,
		PeriodKey:      string(id.PeriodKey),
		Actor:          string(actor),
		ActorId:        actorId,
		Amount:         adjustment.Amount,
		ResolvedAmount: adjusted.ResolvedAmount,
		AdjustedAt:     adjustment.AdjustedAt,
	})
	return adjusted, nil
}

func (s *ServiceImpl) Approve(ctx context.Context, id ClaimId) (Claim, error) {
	claim, err := s.GetClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	return s.repo.Approve(ctx, id)
}

// MarkPaid freezes the claim at its resolved amount as of now.
func (s *ServiceImpl) MarkPaid(ctx context.Context, id ClaimId, paymentDate time.Time) (Claim, error) {
	if paymentDate.IsZero() {
		return Claim{}, fmt.Errorf("%w: payment date is required", ErrValidation)
	}
	claim, err := s.GetClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}

	var paid Claim
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		current, err := repo.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		current.ResolvedAmount = Resolve(current.ComputedAmount, current)
		if _, err := repo.SaveClaim(ctx, current); err != nil {
			return err
		}
		paid, err = repo.MarkPaid(ctx, id, paymentDate)
		return err
	})
	if err != nil {
		return Claim{}, err
	}

	s.publish(ctx, event_bus.ClaimPaidEvent, event_bus.ClaimPaid{
		InternId:       id.InternId,
		PeriodKey:      string(id.PeriodKey),
		ResolvedAmount: paid.ResolvedAmount,
		PaymentDate:    paymentDate,
	})
	return paid, nil
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.eventBus == nil {
		return
	}
	// subscriber errors are logged only, the write is committed at this point
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}

func validateAdjustment(actor Actor, amount float64, note string) error {
	if actor != Supervisor && actor != Admin {
		return fmt.Errorf("%w: unknown actor %q", ErrValidation, actor)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}
	if strings.TrimSpace(note) == "" {
		return fmt.Errorf("%w: a justification note is required", ErrValidation)
	}
	return nil
}

func claimAmountsChanged(before Claim, after Claim) bool {
	return before.Breakdown != after.Breakdown ||
		!before.ComputedAmount.Equal(after.ComputedAmount) ||
		!before.ResolvedAmount.Equal(after.ResolvedAmount)
}
