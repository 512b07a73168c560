package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	HTTPResponses    *prometheus.CounterVec
	PurgeOperations  *prometheus.CounterVec
	PurgeRuns        *prometheus.CounterVec
	NotificationSent *prometheus.CounterVec
}

// InitMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_responses_total",
				Help: "Total number of HTTP responses by route and status class",
			},
			[]string{"route", "class"},
		),
		PurgeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_purge_operations_total",
				Help: "Account purge operations by step and outcome (ok, ignored or failed)",
			},
			[]string{"step", "outcome"},
		),
		PurgeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_purge_runs_total",
				Help: "Account purge invocations by result",
			},
			[]string{"result"},
		),
		NotificationSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "push_notifications_total",
				Help: "Push notifications by category and outcome",
			},
			[]string{"category", "outcome"},
		),
	}

	reg.MustRegister(m.HTTPResponses)
	reg.MustRegister(m.PurgeOperations)
	reg.MustRegister(m.PurgeRuns)
	reg.MustRegister(m.NotificationSent)

	return m
}

// New returns metrics bound to a private registry.
func New() *Metrics {
	return InitMetrics(prometheus.NewRegistry())
}
