package metrics

import (
	"time"

	"github.com/internly/internly/internal/event_bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for allowance claims and wallet sync.
type Metrics struct {
	// Wallet sync runs by outcome: done, error, already_running
	SyncRuns *prometheus.CounterVec

	// Duration of wallet sync runs that held the lock
	SyncDuration prometheus.Histogram

	// Adjustments written by actor: SUPERVISOR, ADMIN
	Adjustments *prometheus.CounterVec

	ClaimsPaid prometheus.Counter

	// Sum of resolved amounts of paid claims
	PaidAmount prometheus.Counter
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "internly_wallet_sync_runs_total",
			Help: "Total wallet sync runs by outcome",
		}, []string{"outcome"}),

		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "internly_wallet_sync_duration_seconds",
			Help:    "Duration of wallet sync runs",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Adjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "internly_claim_adjustments_total",
			Help: "Total claim adjustments by actor",
		}, []string{"actor"}),

		ClaimsPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "internly_claims_paid_total",
			Help: "Total claims marked as paid",
		}),

		PaidAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "internly_claims_paid_amount_total",
			Help: "Sum of resolved amounts of paid claims",
		}),
	}
}

// ObserveSync records a wallet sync run. Runs that found the lock taken have no duration.
func (m *Metrics) ObserveSync(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.SyncDuration.Observe(d.Seconds())
	}
}

// Subscribe counts adjustments and payments published on the bus.
func (m *Metrics) Subscribe(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.ClaimAdjustedEvent, func(e event_bus.EventT[event_bus.ClaimAdjusted]) error {
		m.Adjustments.WithLabelValues(e.Data.Actor).Inc()
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.ClaimPaidEvent, func(e event_bus.EventT[event_bus.ClaimPaid]) error {
		m.ClaimsPaid.Inc()
		m.PaidAmount.Add(e.Data.ResolvedAmount.InexactFloat64())
		return nil
	})
}
