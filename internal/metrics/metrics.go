// Package metrics exposes the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CheckinOutcomes counts final check-in outcomes by result and, for
	// declines, the error kind.
	CheckinOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gympass",
		Subsystem: "checkin",
		Name:      "outcomes_total",
		Help:      "Final check-in outcomes by result and error kind.",
	}, []string{"result", "kind"})

	// GatewayResults counts partner validation calls by classification.
	GatewayResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gympass",
		Subsystem: "gateway",
		Name:      "results_total",
		Help:      "Partner validation calls by outcome classification.",
	}, []string{"outcome"})

	// WebhookEvents counts webhook deliveries by disposition.
	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gympass",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Webhook deliveries by disposition.",
	}, []string{"disposition"})
)

// Register registers all collectors with the default registry. Called once
// from main; tests exercise the unregistered collectors directly.
func Register() {
	prometheus.MustRegister(CheckinOutcomes, GatewayResults, WebhookEvents)
}
