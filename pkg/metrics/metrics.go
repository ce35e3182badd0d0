// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransitionsTotal counts status change attempts by entity and outcome
	// (admitted, denied, failed).
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regulations_status_transitions_total",
		Help: "Status transition attempts by entity kind, destination and outcome.",
	}, []string{"entity", "to", "outcome"})

	// TransactionDuration observes orchestrated transactions.
	TransactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regulations_transaction_duration_seconds",
		Help:    "Duration of multi-document transactions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	// JobsTotal counts background jobs by name and final status.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regulations_jobs_total",
		Help: "Background jobs by name and terminal status.",
	}, []string{"name", "status"})

	// MailsTotal counts notification deliveries.
	MailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regulations_mails_total",
		Help: "Notification mails by template and result.",
	}, []string{"template", "result"})

	// HTTPRequestDuration observes handled requests.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regulations_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
