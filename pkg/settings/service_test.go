package settings

import (
	"context"
	"testing"

	"github.com/internly/internly/internal/event_bus"
	"github.com/internly/internly/pkg/allowance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func validRules() allowance.Rules {
	return allowance.Rules{
		PayoutFrequency: allowance.Monthly,
		WfoRate:         decimal.NewFromInt(100),
		WfhRate:         decimal.NewFromInt(50),
		ApplyTax:        true,
		TaxPercent:      decimal.NewFromInt(3),
	}
}

func TestServiceImpl_GetRules(t *testing.T) {
	t.Run("should return defaults when nothing is stored", func(t *testing.T) {
		service := NewService(NewRepositoryStub(), event_bus.NewEventBus())

		rules, err := service.GetRules(ctx)

		require.NoError(t, err)
		assert.Equal(t, allowance.Monthly, rules.PayoutFrequency)
		assert.True(t, rules.WfoRate.IsZero())
		assert.False(t, rules.ApplyTax)
	})

	t.Run("should return stored rules", func(t *testing.T) {
		// given
		repo := NewRepositoryStub()
		_, err := repo.StoreRules(ctx, validRules())
		require.NoError(t, err)
		service := NewService(repo, event_bus.NewEventBus())

		// when
		rules, err := service.GetRules(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, validRules(), rules)
	})
}

func TestServiceImpl_UpdateRules(t *testing.T) {
	t.Run("should store rules and publish the update", func(t *testing.T) {
		// given
		bus := event_bus.NewEventBus()
		var published []event_bus.AllowanceRulesUpdated
		event_bus.SubscribeTyped(bus, event_bus.AllowanceRulesUpdatedEvent, func(e event_bus.EventT[event_bus.AllowanceRulesUpdated]) error {
			published = append(published, e.Data)
			return nil
		})
		repo := NewRepositoryStub()
		service := NewService(repo, bus)

		// when
		stored, err := service.UpdateRules(ctx, validRules())

		// then
		require.NoError(t, err)
		assert.Equal(t, validRules(), stored)
		require.Len(t, published, 1)
		assert.Equal(t, "MONTHLY", published[0].PayoutFrequency)
		assert.True(t, published[0].TaxPercent.Equal(decimal.NewFromInt(3)))
	})

	invalid := map[string]func(r *allowance.Rules){
		"unknown frequency": func(r *allowance.Rules) { r.PayoutFrequency = "WEEKLY" },
		"negative rate":     func(r *allowance.Rules) { r.WfhRate = decimal.NewFromInt(-1) },
		"tax above 100":     func(r *allowance.Rules) { r.TaxPercent = decimal.NewFromInt(101) },
	}
	for name, mutate := range invalid {
		t.Run("should reject "+name, func(t *testing.T) {
			// given
			repo := NewRepositoryStub()
			service := NewService(repo, event_bus.NewEventBus())
			rules := validRules()
			mutate(&rules)

			// when
			_, err := service.UpdateRules(ctx, rules)

			// then
			assert.ErrorIs(t, err, allowance.ErrValidation)
			_, err = repo.GetRules(ctx)
			assert.ErrorIs(t, err, ErrSettingsNotFound)
		})
	}
}
