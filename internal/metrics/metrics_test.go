package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
)

func TestPaymentMetrics_ObserveRequest(t *testing.T) {
	m, err := NewPaymentMetrics(prometheus.NewRegistry(), "payment", "test")
	require.NoError(t, err)

	m.ObserveRequest("create-payment", time.Now(), nil)
	m.ObserveRequest("create-payment", time.Now(), nil)
	m.ObserveRequest("create-payment", time.Now(), pkgerrors.NewAppError(pkgerrors.ErrValidation, "amount is required", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("create-payment", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("create-payment", "validation")))
}

func TestPaymentMetrics_ObserveWebhookEvent(t *testing.T) {
	m, err := NewPaymentMetrics(prometheus.NewRegistry(), "", "")
	require.NoError(t, err)

	m.ObserveWebhookEvent("invoice.paid", WebhookOutcomeApplied)
	m.ObserveWebhookEvent("", WebhookOutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("invoice.paid", WebhookOutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("unknown", WebhookOutcomeRejected)))
}

func TestPaymentMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPaymentMetrics(reg, "payment", "test")
	require.NoError(t, err)

	_, err = NewPaymentMetrics(reg, "payment", "test")
	assert.Error(t, err)
}

func TestPaymentMetrics_NilIsNoop(t *testing.T) {
	var m *PaymentMetrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("verify-payment", time.Now(), errors.New("boom"))
		m.ObserveWebhookEvent("invoice.paid", WebhookOutcomeFailed)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, "internal", Outcome(errors.New("boom")))
	assert.Equal(t, "not_found_or_forbidden", Outcome(pkgerrors.NewAppError(pkgerrors.ErrNotFoundOrForbidden, "x", nil)))
}
