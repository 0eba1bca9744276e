// Package metrics registers the Prometheus collectors rent collection
// exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OriginationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentcollection_originations_total",
		Help: "Rent payment originations by immediate outcome.",
	}, []string{"outcome"})

	SettlementEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentcollection_settlement_events_total",
		Help: "Processor settlement events by result of applying them.",
	}, []string{"result"})

	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentcollection_webhook_requests_total",
		Help: "Processor webhook deliveries by verdict.",
	}, []string{"verdict"})

	ReconcileSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentcollection_reconcile_sweeps_total",
		Help: "Completed reconciliation sweeps.",
	})

	ReconciledPaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentcollection_reconciled_payments_total",
		Help: "Stale pending payments resolved by the sweep, by resolution.",
	}, []string{"resolution"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentcollection_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
