// Package metrics exposes Prometheus counters for the payment endpoints and
// the webhook reconciler.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
)

const (
	OutcomeOK = "ok"

	WebhookOutcomeApplied   = "applied"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeStale     = "stale"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeFailed    = "failed"
	WebhookOutcomeRejected  = "rejected"
)

// PaymentMetrics is safe to use as a nil pointer; every method is then a no-op.
type PaymentMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
}

// NewPaymentMetrics registers the collectors on registerer.
func NewPaymentMetrics(registerer prometheus.Registerer, serviceName, environment string) (*PaymentMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "payment"
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &PaymentMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "zerovacancy_payments_requests_total",
			Help:        "Orchestrator requests by operation and outcome.",
			ConstLabels: constLabels,
		}, []string{"operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "zerovacancy_payments_request_duration_seconds",
			Help:        "Orchestrator latency including processor round trips.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "zerovacancy_payments_webhook_events_total",
			Help:        "Webhook deliveries by event type and outcome.",
			ConstLabels: constLabels,
		}, []string{"type", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.requestDuration, m.webhookEvents} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one orchestrator call. The outcome is "ok" or the
// lower-cased error code.
func (m *PaymentMetrics) ObserveRequest(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, Outcome(err)).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *PaymentMetrics) ObserveWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// Outcome maps err to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return strings.ToLower(pkgerrors.CodeOf(err))
}
