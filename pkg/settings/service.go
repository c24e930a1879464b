package settings

import (
	"context"
	"errors"

	"github.com/internly/internly/internal/event_bus"
	"github.com/internly/internly/pkg/allowance"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// GetRules returns the stored allowance rules, or DefaultRules when none were configured yet.
	GetRules(ctx context.Context) (allowance.Rules, error)
	UpdateRules(ctx context.Context, rules allowance.Rules) (allowance.Rules, error)
}

// DefaultRules pays nothing until an administrator sets the rates.
func DefaultRules() allowance.Rules {
	return allowance.Rules{
		PayoutFrequency: allowance.Monthly,
		WfoRate:         decimal.Zero,
		WfhRate:         decimal.Zero,
		ApplyTax:        false,
		TaxPercent:      decimal.Zero,
	}
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) GetRules(ctx context.Context) (allowance.Rules, error) {
	rules, err := s.repo.GetRules(ctx)
	if errors.Is(err, ErrSettingsNotFound) {
		log.Warn("allowance settings not configured, using defaults")
		return DefaultRules(), nil
	}
	return rules, err
}

func (s *ServiceImpl) UpdateRules(ctx context.Context, rules allowance.Rules) (allowance.Rules, error) {
	if err := rules.Validate(); err != nil {
		return allowance.Rules{}, err
	}
	stored, err := s.repo.StoreRules(ctx, rules)
	if err != nil {
		return allowance.Rules{}, err
	}
	log.Infof("allowance rules updated: %s", stored.PayoutFrequency)

	if s.eventBus != nil {
		err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.AllowanceRulesUpdatedEvent, event_bus.AllowanceRulesUpdated{
			PayoutFrequency: string(stored.PayoutFrequency),
			WfoRate:         stored.WfoRate,
			WfhRate:         stored.WfhRate,
			ApplyTax:        stored.ApplyTax,
			TaxPercent:      stored.TaxPercent,
		}))
		if err != nil {
			log.Errorf("failed to publish %s: %v", event_bus.AllowanceRulesUpdatedEvent, err)
		}
	}
	return stored, nil
}
