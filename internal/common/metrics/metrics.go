// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotes_submitted_total",
			Help: "Total number of quote submissions persisted",
		},
		[]string{"product"},
	)

	QuotesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotes_rejected_total",
			Help: "Total number of quote submissions rejected by validation",
		},
		[]string{"product"},
	)

	QuoteSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quote_submission_duration_seconds",
			Help: "Duration of quote submission processing in seconds",
		},
		[]string{"product"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_notification_failures_total",
			Help: "Total number of notification emails that failed to send",
		},
		[]string{"product"},
	)

	AddressLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_lookups_total",
			Help: "Total number of postal-code directory lookups",
		},
		[]string{"outcome"},
	)
)
