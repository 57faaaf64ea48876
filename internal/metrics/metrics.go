// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dividafacil"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups every collector the server exports.
type Metrics struct {
	Recomputes        *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	SettlementTxs     prometheus.Histogram
	RPCRequests       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_recomputes_total",
			Help:      "Group ledger recomputations by outcome.",
		}, []string{"outcome"}),
		RecomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_recompute_duration_seconds",
			Help:      "Time spent loading, recomputing and saving a group ledger.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		SettlementTxs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transactions",
			Help:      "Number of payments suggested per settlement.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Handled RPC calls by procedure and status code.",
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.Recomputes, m.RecomputeDuration, m.SettlementTxs, m.RPCRequests)
	return m
}

// ObserveRecompute records one ledger recomputation.
func (m *Metrics) ObserveRecompute(seconds float64, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Recomputes.WithLabelValues(outcome).Inc()
	m.RecomputeDuration.WithLabelValues(outcome).Observe(seconds)
}

// ObserveSettlement records how many payments a settlement suggested.
func (m *Metrics) ObserveSettlement(transactions int) {
	m.SettlementTxs.Observe(float64(transactions))
}
