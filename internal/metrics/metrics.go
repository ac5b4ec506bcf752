package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_payments_total",
			Help: "Total number of payments by type, method and status",
		},
		[]string{"type", "method", "status"},
	)

	SettlementFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubhub_settlement_failures_total",
			Help: "Total number of failed balance settlements",
		},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_event_registrations_total",
			Help: "Total number of event registrations",
		},
		[]string{"action"},
	)

	RegistrationCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubhub_registration_cancellations_total",
			Help: "Total number of registration cancellations",
		},
	)

	JoinRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_club_join_requests_total",
			Help: "Total number of club join requests",
		},
		[]string{"status"},
	)

	BalanceTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubhub_balance_topups_total",
			Help: "Total number of balance top-ups",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clubhub_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPayment(paymentType, method, status string) {
	PaymentsTotal.WithLabelValues(paymentType, method, status).Inc()
}

func RecordSettlementFailure() {
	SettlementFailuresTotal.Inc()
}

func RecordRegistration(action string) {
	RegistrationsTotal.WithLabelValues(action).Inc()
}

func RecordRegistrationCancellation() {
	RegistrationCancellationsTotal.Inc()
}

func RecordJoinRequest(status string) {
	JoinRequestsTotal.WithLabelValues(status).Inc()
}

func RecordTopUp() {
	BalanceTopUpsTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
