package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts badge activity. A nil *Metrics records nothing.
type Metrics struct {
	badgesClaimed     prometheus.Counter
	milestonesClaimed prometheus.Counter
	doshAwarded       prometheus.Counter
	actions           *prometheus.CounterVec
	referrals         prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		badgesClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badges_claimed_total",
			Help: "Total number of badges claimed",
		}),
		milestonesClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badge_milestones_claimed_total",
			Help: "Total number of milestone rewards claimed",
		}),
		doshAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dosh_awarded_total",
			Help: "Total dosh awarded through badge and milestone claims",
		}),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badge_actions_total",
				Help: "Total number of finished badge actions",
			},
			[]string{"kind", "outcome"},
		),
		referrals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referrals_registered_total",
			Help: "Total number of referred friends registered",
		}),
	}

	reg.MustRegister(m.badgesClaimed, m.milestonesClaimed, m.doshAwarded, m.actions, m.referrals)
	return m
}

func (m *Metrics) badgeClaimed(dosh int) {
	if m == nil {
		return
	}
	m.badgesClaimed.Inc()
	m.doshAwarded.Add(float64(dosh))
}

func (m *Metrics) milestoneClaimed(dosh int) {
	if m == nil {
		return
	}
	m.milestonesClaimed.Inc()
	m.doshAwarded.Add(float64(dosh))
}

func (m *Metrics) actionFinished(kind ActionKind, outcome Outcome) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (m *Metrics) referralRegistered() {
	if m == nil {
		return
	}
	m.referrals.Inc()
}
