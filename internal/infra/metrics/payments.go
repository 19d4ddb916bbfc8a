package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		callbacksTotal,
		callbackDuration,
		casConflictsTotal,
		activationsTotal,
	)
}

var (
	// Callbacks by provider, normalized intent and outcome (ok|error).
	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Provider callbacks by provider, intent and outcome.",
		},
		[]string{"provider", "intent", "outcome"},
	)

	callbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_callback_duration_seconds",
			Help:    "Duration of provider callback handlers in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"provider"},
	)

	// Version conflicts resolved by re-read. These are expected under
	// provider retry storms and are not errors.
	casConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_cas_conflicts_total",
			Help: "Optimistic-version conflicts resolved by idempotent re-read.",
		},
		[]string{"provider"},
	)

	// Subscription activation collaborator invocations by status
	// (ok|error|replayed).
	activationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_activations_total",
			Help: "Subscription activation collaborator calls by status.",
		},
		[]string{"status"},
	)
)

func IncCallback(provider, intent, outcome string) {
	callbacksTotal.WithLabelValues(norm(provider), norm(intent), norm(outcome)).Inc()
}

func ObserveCallback(provider string, seconds float64) {
	callbackDuration.WithLabelValues(norm(provider)).Observe(seconds)
}

func IncCASConflict(provider string) {
	casConflictsTotal.WithLabelValues(norm(provider)).Inc()
}

func IncActivation(status string) {
	activationsTotal.WithLabelValues(norm(status)).Inc()
}
