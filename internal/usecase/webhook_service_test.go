package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	adapterRepo "github.com/zerovacancy/payments/internal/adapter/repository"
	"github.com/zerovacancy/payments/internal/catalog"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"github.com/zerovacancy/payments/internal/testutil"
	"github.com/zerovacancy/payments/internal/usecase"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type webhookFixture struct {
	db        *gorm.DB
	verifier  *MockVerifier
	publisher *recordingPublisher
	repos     usecase.WebhookRepositories
	service   *usecase.WebhookService
}

func newWebhookFixture(t *testing.T, secret string) *webhookFixture {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewTestDB(t)
	plans, err := catalog.Load("")
	require.NoError(t, err)

	f := &webhookFixture{
		db:        db,
		verifier:  new(MockVerifier),
		publisher: &recordingPublisher{},
		repos: usecase.WebhookRepositories{
			Events:           adapterRepo.NewWebhookRepository(db, logger),
			Subscriptions:    adapterRepo.NewSubscriptionRepository(db, logger),
			Payments:         adapterRepo.NewPaymentRepository(db, logger),
			Accounts:         adapterRepo.NewConnectedAccountRepository(db, logger),
			CustomerMappings: adapterRepo.NewCustomerMappingRepository(db, logger),
		},
	}
	f.service = usecase.NewWebhookService(f.repos, f.verifier, secret, plans, f.publisher, "billing", nil, logger)
	return f
}

// deliver registers event under a signature derived from its id and hands it to the service.
func (f *webhookFixture) deliver(event *provider.Event) error {
	payload := []byte(`{"id":"` + event.ID + `","type":"` + event.Type + `"}`)
	signature := "sig-" + event.ID
	f.verifier.On("ConstructEvent", payload, signature, testSecret).Return(event, nil)
	return f.service.HandleEvent(context.Background(), payload, signature)
}

func (f *webhookFixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func subscriptionEvent(id, eventType, status string, created time.Time) *provider.Event {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return &provider.Event{
		ID:      id,
		Type:    eventType,
		Created: created,
		Subscription: &provider.Subscription{
			ID:                 "sub_1",
			CustomerID:         "cus_1",
			PriceID:            "price_zv_basic_monthly",
			Status:             status,
			CurrentPeriodStart: &start,
			CurrentPeriodEnd:   &end,
			Metadata:           map[string]string{"user_id": "u1"},
			Raw:                map[string]interface{}{"id": "sub_1", "status": status},
		},
	}
}

func TestWebhookService_Rejects(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)

	t.Run("missing secret", func(t *testing.T) {
		f := newWebhookFixture(t, "")

		err := f.service.HandleEvent(ctx, payload, "t=1,v1=abc")
		require.Error(t, err)
		assert.Equal(t, pkgerrors.ErrWebhookRejected, pkgerrors.CodeOf(err))
		assert.Equal(t, 400, pkgerrors.ToHTTPStatus(pkgerrors.CodeOf(err)))
		f.verifier.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing signature", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)

		err := f.service.HandleEvent(ctx, payload, "")
		assert.Equal(t, pkgerrors.ErrWebhookRejected, pkgerrors.CodeOf(err))
		f.verifier.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid signature mutates nothing", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		f.verifier.On("ConstructEvent", payload, "t=1,v1=forged", testSecret).
			Return(nil, errors.New("no signatures found matching the expected signature for payload")).Once()

		err := f.service.HandleEvent(ctx, payload, "t=1,v1=forged")
		require.Error(t, err)
		assert.Equal(t, pkgerrors.ErrWebhookRejected, pkgerrors.CodeOf(err))

		assert.Zero(t, f.count(t, &model.Subscription{}))
		assert.Zero(t, f.count(t, &model.Payment{}))
		assert.Zero(t, f.count(t, &model.ConnectedAccount{}))
		assert.Zero(t, f.count(t, &model.StripeWebhookEvent{}))
		assert.Zero(t, f.publisher.count())
	})
}

func TestWebhookService_SubscriptionEvents(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	t.Run("replayed update leaves one row", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		event := subscriptionEvent("evt_1", provider.EventSubscriptionUpdated, "active", t0)

		require.NoError(t, f.deliver(event))
		require.NoError(t, f.deliver(event))

		// Same payload under a new event id is also harmless.
		again := subscriptionEvent("evt_1b", provider.EventSubscriptionUpdated, "active", t0)
		require.NoError(t, f.deliver(again))

		assert.Equal(t, int64(1), f.count(t, &model.Subscription{}))
		stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "u1", stored.UserID)
		assert.Equal(t, model.SubscriptionStatusActive, stored.Status)
		assert.Equal(t, "Basic", stored.PlanName)

		recorded, err := f.repos.Events.GetEvent(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, model.WebhookStatusCompleted, recorded.Status)
		assert.Equal(t, 2, f.publisher.count())
	})

	t.Run("older event does not overwrite newer state", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)

		require.NoError(t, f.deliver(subscriptionEvent("evt_new", provider.EventSubscriptionUpdated, "active", t0.Add(time.Minute))))
		require.NoError(t, f.deliver(subscriptionEvent("evt_old", provider.EventSubscriptionUpdated, "past_due", t0)))

		stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusActive, stored.Status)
	})

	t.Run("cancel at period end then deletion", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)

		updated := subscriptionEvent("evt_1", provider.EventSubscriptionUpdated, "active", t0)
		updated.Subscription.CancelAtPeriodEnd = true
		require.NoError(t, f.deliver(updated))

		stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusCanceling, stored.Status)

		require.NoError(t, f.deliver(subscriptionEvent("evt_2", provider.EventSubscriptionDeleted, "canceled", t0.Add(time.Hour))))
		stored, err = f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusCanceled, stored.Status)
	})

	t.Run("user resolved from customer mapping", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		_, err := f.repos.CustomerMappings.Reserve(ctx, "u9", "", testutil.NewReservationToken())
		require.NoError(t, err)
		require.NoError(t, f.repos.CustomerMappings.AttachCustomer(ctx, "u9", "cus_1"))

		event := subscriptionEvent("evt_1", provider.EventSubscriptionCreated, "incomplete", t0)
		event.Subscription.Metadata = nil
		require.NoError(t, f.deliver(event))

		stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "u9", stored.UserID)
	})

	t.Run("unknown user is acknowledged", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)

		event := subscriptionEvent("evt_1", provider.EventSubscriptionCreated, "incomplete", t0)
		event.Subscription.Metadata = nil
		require.NoError(t, f.deliver(event))
		assert.Zero(t, f.count(t, &model.Subscription{}))
	})
}

func TestWebhookService_InvoiceEvents(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	invoiceEvent := func(id, eventType string) *provider.Event {
		paidAt := t0.Add(-time.Minute)
		return &provider.Event{
			ID:      id,
			Type:    eventType,
			Created: t0,
			Invoice: &provider.Invoice{
				ID:              "in_1",
				CustomerID:      "cus_1",
				SubscriptionID:  "sub_1",
				PaymentIntentID: "pi_inv_1",
				AmountPaid:      2900,
				Currency:        "usd",
				PaidAt:          &paidAt,
			},
		}
	}

	t.Run("paid invoice recorded once", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		require.NoError(t, f.deliver(subscriptionEvent("evt_sub", provider.EventSubscriptionCreated, "active", t0.Add(-time.Hour))))

		require.NoError(t, f.deliver(invoiceEvent("evt_inv", provider.EventInvoicePaid)))
		require.NoError(t, f.deliver(invoiceEvent("evt_inv", provider.EventInvoicePaid)))
		require.NoError(t, f.deliver(invoiceEvent("evt_inv_redelivered", provider.EventInvoicePaid)))

		assert.Equal(t, int64(1), f.count(t, &model.Payment{}))
		payment, err := f.repos.Payments.GetByInvoiceID(ctx, "in_1")
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, "u1", payment.UserID)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		assert.Equal(t, int64(2900), payment.Amount)
		assert.Equal(t, "sub_1", *payment.ProcessorSubscriptionID)
	})

	t.Run("paid invoice completes pending payment for its intent", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		require.NoError(t, f.deliver(subscriptionEvent("evt_sub", provider.EventSubscriptionCreated, "incomplete", t0.Add(-time.Hour))))
		require.NoError(t, f.repos.Payments.Create(ctx, &model.Payment{
			UserID:                   "u1",
			ProcessorPaymentIntentID: testutil.Ptr("pi_inv_1"),
			Amount:                   2900,
			Currency:                 "usd",
			Status:                   model.PaymentStatusPending,
		}))

		require.NoError(t, f.deliver(invoiceEvent("evt_inv", provider.EventInvoicePaid)))

		assert.Equal(t, int64(1), f.count(t, &model.Payment{}))
		payment, err := f.repos.Payments.GetByPaymentIntentID(ctx, "pi_inv_1")
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		require.NotNil(t, payment.ProcessorInvoiceID)
		assert.Equal(t, "in_1", *payment.ProcessorInvoiceID)
		require.NotNil(t, payment.PaidAt)

		byInvoice, err := f.repos.Payments.GetByInvoiceID(ctx, "in_1")
		require.NoError(t, err)
		require.NotNil(t, byInvoice)
		assert.Equal(t, payment.ID, byInvoice.ID)
	})

	t.Run("invoice without subscription is ignored", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		event := invoiceEvent("evt_inv", provider.EventInvoicePaid)
		event.Invoice.SubscriptionID = ""

		require.NoError(t, f.deliver(event))
		assert.Zero(t, f.count(t, &model.Payment{}))
	})

	t.Run("failed invoice marks past due", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		require.NoError(t, f.deliver(subscriptionEvent("evt_sub", provider.EventSubscriptionCreated, "active", t0.Add(-time.Hour))))

		require.NoError(t, f.deliver(invoiceEvent("evt_fail", provider.EventInvoicePaymentFailed)))

		stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusPastDue, stored.Status)

		// A retried payment brings it back.
		require.NoError(t, f.deliver(subscriptionEvent("evt_sub2", provider.EventSubscriptionUpdated, "active", t0.Add(time.Hour))))
		stored, err = f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusActive, stored.Status)
	})
}

func TestWebhookService_PaymentAndAccountEvents(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	t.Run("payment intent lifecycle", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		require.NoError(t, f.repos.Payments.Create(ctx, &model.Payment{
			UserID:                   "u1",
			ProcessorPaymentIntentID: testutil.Ptr("pi_1"),
			Amount:                   5000,
			Currency:                 "usd",
			Status:                   model.PaymentStatusPending,
		}))

		require.NoError(t, f.deliver(&provider.Event{
			ID: "evt_fail", Type: provider.EventPaymentIntentFailed, Created: t0,
			PaymentIntent: &provider.PaymentIntent{ID: "pi_1", Status: "requires_payment_method", LastErrorMessage: "Your card was declined."},
		}))
		payment, err := f.repos.Payments.GetByPaymentIntentID(ctx, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusFailed, payment.Status)
		assert.Equal(t, "Your card was declined.", *payment.FailureMessage)

		require.NoError(t, f.deliver(&provider.Event{
			ID: "evt_ok", Type: provider.EventPaymentIntentSucceeded, Created: t0.Add(time.Minute),
			PaymentIntent: &provider.PaymentIntent{ID: "pi_1", Status: "succeeded"},
		}))
		payment, err = f.repos.Payments.GetByPaymentIntentID(ctx, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		assert.NotNil(t, payment.PaidAt)

		// Completed rows are immutable.
		require.NoError(t, f.deliver(&provider.Event{
			ID: "evt_late_fail", Type: provider.EventPaymentIntentFailed, Created: t0.Add(2 * time.Minute),
			PaymentIntent: &provider.PaymentIntent{ID: "pi_1"},
		}))
		payment, err = f.repos.Payments.GetByPaymentIntentID(ctx, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	})

	t.Run("account onboarding completes", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)
		require.NoError(t, f.repos.Accounts.Create(ctx, &model.ConnectedAccount{
			UserID:             "photographer-1",
			ProcessorAccountID: "acct_1",
			Country:            "US",
		}))

		require.NoError(t, f.deliver(&provider.Event{
			ID: "evt_acct", Type: provider.EventAccountUpdated, Created: t0,
			Account: &provider.Account{ID: "acct_1", DetailsSubmitted: true, Raw: map[string]interface{}{"id": "acct_1"}},
		}))

		stored, err := f.repos.Accounts.GetByUserID(ctx, "photographer-1")
		require.NoError(t, err)
		assert.True(t, stored.Onboarded)
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		f := newWebhookFixture(t, testSecret)

		require.NoError(t, f.deliver(&provider.Event{ID: "evt_x", Type: "charge.refunded", Created: t0}))

		recorded, err := f.repos.Events.GetEvent(ctx, "evt_x")
		require.NoError(t, err)
		assert.Equal(t, model.WebhookStatusCompleted, recorded.Status)
		assert.Zero(t, f.publisher.count())
	})
}

// flakySubscriptions fails the first event upsert.
type flakySubscriptions struct {
	repository.SubscriptionRepository
	failures int
}

func (r *flakySubscriptions) UpsertFromEvent(ctx context.Context, subscription *model.Subscription) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, errors.New("connection reset by peer")
	}
	return r.SubscriptionRepository.UpsertFromEvent(ctx, subscription)
}

func TestWebhookService_FailedEventIsRetried(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	f := newWebhookFixture(t, testSecret)
	plans, err := catalog.Load("")
	require.NoError(t, err)
	f.repos.Subscriptions = &flakySubscriptions{SubscriptionRepository: f.repos.Subscriptions, failures: 1}
	f.service = usecase.NewWebhookService(f.repos, f.verifier, testSecret, plans, f.publisher, "billing", nil, zap.NewNop())

	event := subscriptionEvent("evt_1", provider.EventSubscriptionCreated, "active", t0)

	err = f.deliver(event)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrUpstream, pkgerrors.CodeOf(err))
	assert.Equal(t, 400, pkgerrors.ToHTTPStatus(pkgerrors.CodeOf(err)))

	recorded, err := f.repos.Events.GetEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.Equal(t, model.WebhookStatusFailed, recorded.Status)
	assert.Equal(t, 1, recorded.ProcessingAttempts)
	require.NotNil(t, recorded.LastError)
	assert.Contains(t, *recorded.LastError, "connection reset by peer")
	assert.Zero(t, f.count(t, &model.Subscription{}))
	assert.Zero(t, f.publisher.count())

	require.NoError(t, f.deliver(event))

	recorded, err = f.repos.Events.GetEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, model.WebhookStatusCompleted, recorded.Status)
	assert.Nil(t, recorded.LastError)
	assert.Equal(t, int64(1), f.count(t, &model.StripeWebhookEvent{}))

	stored, err := f.repos.Subscriptions.GetByProcessorID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.SubscriptionStatusActive, stored.Status)
	assert.Equal(t, 1, f.publisher.count())
}
