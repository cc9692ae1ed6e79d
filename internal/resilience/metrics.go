package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker telemetry, labelled by the guarded dependency.
var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pos_breaker_state",
			Help: "Breaker admission mode per dependency: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"dependency"},
	)
	breakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_breaker_transitions_total",
			Help: "Breaker state transitions per dependency.",
		},
		[]string{"dependency", "from", "to"},
	)
	breakerOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_breaker_opened_total",
			Help: "Times a breaker tripped open per dependency.",
		},
		[]string{"dependency"},
	)
)

func init() {
	prometheus.MustRegister(breakerState, breakerTransitions, breakerOpened)
}
