package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed emails",
		},
	)

	EmailsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_cancelled_total",
			Help: "Total scheduled emails cancelled before firing",
		},
	)

	EmailsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "emails_pending",
			Help: "Scheduled emails waiting for their deadline",
		},
	)
)

// Init registers the collectors with the default registry.
// Call it once per process.
func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(EmailsCancelled)
	prometheus.MustRegister(EmailsPending)
}

// Record counts a terminal dispatch outcome.
func Record(sent bool) {
	if sent {
		EmailsSent.Inc()
		return
	}
	EmailFailures.Inc()
}
