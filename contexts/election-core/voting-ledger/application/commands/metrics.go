package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts orchestrator outcomes. A nil *Metrics disables counting, so
// test wiring does not need a registry.
type Metrics struct {
	votesCommitted prometheus.Counter
	votesRejected  *prometheus.CounterVec
	timeouts       prometheus.Counter
	lateCommits    prometheus.Counter
	lateDiscards   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		votesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "electra_votes_committed_total",
			Help: "Votes committed to the local ledger after chain confirmation",
		}),
		votesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electra_votes_rejected_total",
			Help: "Vote-cast requests rejected before or after submission",
		}, []string{"reason"}),
		timeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "electra_confirmation_timeouts_total",
			Help: "Chain confirmations that exceeded the configured ceiling",
		}),
		lateCommits: factory.NewCounter(prometheus.CounterOpts{
			Name: "electra_late_confirmation_commits_total",
			Help: "Votes committed by a confirmation that arrived after timeout",
		}),
		lateDiscards: factory.NewCounter(prometheus.CounterOpts{
			Name: "electra_late_confirmation_discards_total",
			Help: "Late confirmations discarded because the pair was already recorded",
		}),
	}
}

func (m *Metrics) committed() {
	if m != nil {
		m.votesCommitted.Inc()
	}
}

func (m *Metrics) rejected(reason string) {
	if m != nil {
		m.votesRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) timedOut() {
	if m != nil {
		m.timeouts.Inc()
	}
}

func (m *Metrics) lateCommitted() {
	if m != nil {
		m.lateCommits.Inc()
	}
}

func (m *Metrics) lateDiscarded() {
	if m != nil {
		m.lateDiscards.Inc()
	}
}
