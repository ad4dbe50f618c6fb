package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/zerovacancy/payments/internal/catalog"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/pkg/messaging"
	"go.uber.org/zap"
)

// WebhookRepositories groups the stores the reconciler writes to.
type WebhookRepositories struct {
	Events           repository.WebhookEventRepository
	Subscriptions    repository.SubscriptionRepository
	Payments         repository.PaymentRepository
	Accounts         repository.ConnectedAccountRepository
	CustomerMappings repository.CustomerMappingRepository
}

// WebhookService verifies processor events and applies them to the store.
// Each event id is applied at most once, and subscription rows only move
// forward in event time.
type WebhookService struct {
	repos         WebhookRepositories
	verifier      provider.EventVerifier
	webhookSecret string
	plans         *catalog.Catalog
	publisher     messaging.Publisher
	channel       string
	metrics       *metrics.PaymentMetrics
	logger        *zap.Logger
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(
	repos WebhookRepositories,
	verifier provider.EventVerifier,
	webhookSecret string,
	plans *catalog.Catalog,
	publisher messaging.Publisher,
	channel string,
	m *metrics.PaymentMetrics,
	logger *zap.Logger,
) *WebhookService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &WebhookService{
		repos:         repos,
		verifier:      verifier,
		webhookSecret: webhookSecret,
		plans:         plans,
		publisher:     publisher,
		channel:       channel,
		metrics:       m,
		logger:        logger.Named("webhook"),
	}
}

type eventResult struct {
	outcome string
	billing *BillingEvent
}

func ignored() eventResult {
	return eventResult{outcome: metrics.WebhookOutcomeIgnored}
}

// HandleEvent verifies and applies one delivery. Any error means nothing was
// committed for a rejected event, or that the processor should redeliver.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		s.logger.Error("Webhook secret not configured; rejecting delivery")
		s.metrics.ObserveWebhookEvent("", metrics.WebhookOutcomeRejected)
		return domainErrors.NewWebhookRejectedError("Webhook secret not configured", nil)
	}
	if signature == "" {
		s.metrics.ObserveWebhookEvent("", metrics.WebhookOutcomeRejected)
		return domainErrors.NewWebhookRejectedError("Missing Stripe-Signature header", nil)
	}

	event, err := s.verifier.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		s.metrics.ObserveWebhookEvent("", metrics.WebhookOutcomeRejected)
		return domainErrors.NewWebhookRejectedError("Webhook signature verification failed", err)
	}

	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	var data model.JSONB
	if err := json.Unmarshal(payload, &data); err != nil {
		log.Warn("Failed to snapshot webhook payload", zap.Error(err))
	}

	if err := s.repos.Events.SaveEvent(ctx, event.ID, event.Type, event.Created, data); err != nil {
		s.metrics.ObserveWebhookEvent(event.Type, metrics.WebhookOutcomeFailed)
		return domainErrors.Upstream(err)
	}

	stored, err := s.repos.Events.GetEvent(ctx, event.ID)
	if err != nil {
		s.metrics.ObserveWebhookEvent(event.Type, metrics.WebhookOutcomeFailed)
		return domainErrors.Upstream(err)
	}
	if stored != nil && stored.Status == model.WebhookStatusCompleted {
		log.Info("Webhook event already processed")
		s.metrics.ObserveWebhookEvent(event.Type, metrics.WebhookOutcomeDuplicate)
		return nil
	}

	result, err := s.dispatch(ctx, event)
	if err != nil {
		log.Error("Failed to process webhook event", zap.Error(err))
		if markErr := s.repos.Events.MarkFailed(ctx, event.ID, err); markErr != nil {
			log.Error("Failed to mark webhook event failed", zap.Error(markErr))
		}
		s.metrics.ObserveWebhookEvent(event.Type, metrics.WebhookOutcomeFailed)
		return domainErrors.Upstream(err)
	}

	if err := s.repos.Events.MarkProcessed(ctx, event.ID); err != nil {
		log.Error("Failed to mark webhook event processed", zap.Error(err))
	}

	log.Info("Webhook event handled", zap.String("outcome", result.outcome))
	s.metrics.ObserveWebhookEvent(event.Type, result.outcome)

	if result.billing != nil {
		if err := s.publisher.Publish(ctx, s.channel, result.billing); err != nil {
			log.Warn("Failed to publish billing event", zap.Error(err))
		}
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *provider.Event) (eventResult, error) {
	switch event.Type {
	case provider.EventSubscriptionCreated, provider.EventSubscriptionUpdated, provider.EventSubscriptionDeleted:
		return s.applySubscription(ctx, event)
	case provider.EventInvoicePaid:
		return s.applyInvoicePaid(ctx, event)
	case provider.EventInvoicePaymentFailed:
		return s.applyInvoicePaymentFailed(ctx, event)
	case provider.EventPaymentIntentSucceeded:
		return s.applyPaymentIntentSucceeded(ctx, event)
	case provider.EventPaymentIntentFailed:
		return s.applyPaymentIntentFailed(ctx, event)
	case provider.EventAccountUpdated:
		return s.applyAccountUpdated(ctx, event)
	default:
		return ignored(), nil
	}
}

// eventTime is second precision in UTC, matching the processor's clock.
func eventTime(event *provider.Event) time.Time {
	return event.Created.UTC().Truncate(time.Second)
}

func (s *WebhookService) applySubscription(ctx context.Context, event *provider.Event) (eventResult, error) {
	sub := event.Subscription
	if sub == nil || sub.ID == "" {
		return ignored(), nil
	}

	userID, err := s.resolveUserID(ctx, sub.Metadata["user_id"], sub.CustomerID)
	if err != nil {
		return eventResult{}, err
	}
	if userID == "" {
		existing, err := s.repos.Subscriptions.GetByProcessorID(ctx, sub.ID)
		if err != nil {
			return eventResult{}, err
		}
		if existing == nil {
			s.logger.Warn("Subscription event for unknown user",
				zap.String("event_id", event.ID),
				zap.String("subscription_id", sub.ID),
				zap.String("customer_id", sub.CustomerID))
			return ignored(), nil
		}
		userID = existing.UserID
	}

	status := model.SubscriptionStatusFromProcessor(sub.Status, sub.CancelAtPeriodEnd)
	if event.Type == provider.EventSubscriptionDeleted {
		status = model.SubscriptionStatusCanceled
	}

	var planName string
	if plan, ok := s.plans.ByPriceID(sub.PriceID); ok {
		planName = plan.Name
	}

	eventAt := eventTime(event)
	row := &model.Subscription{
		UserID:                  userID,
		ProcessorCustomerID:     sub.CustomerID,
		ProcessorSubscriptionID: sub.ID,
		PlanID:                  sub.PriceID,
		PlanName:                planName,
		Status:                  status,
		CurrentPeriodStart:      sub.CurrentPeriodStart,
		CurrentPeriodEnd:        sub.CurrentPeriodEnd,
		CancelAt:                sub.CancelAt,
		CanceledAt:              sub.CanceledAt,
		LastEventAt:             &eventAt,
		RawMetadata:             model.JSONB(sub.Raw),
	}

	applied, err := s.repos.Subscriptions.UpsertFromEvent(ctx, row)
	if err != nil {
		return eventResult{}, err
	}
	if !applied {
		return eventResult{outcome: metrics.WebhookOutcomeStale}, nil
	}

	return eventResult{
		outcome: metrics.WebhookOutcomeApplied,
		billing: &BillingEvent{
			EventID:        event.ID,
			Type:           event.Type,
			UserID:         userID,
			SubscriptionID: sub.ID,
			Status:         string(status),
			OccurredAt:     eventAt,
		},
	}, nil
}

func (s *WebhookService) applyInvoicePaid(ctx context.Context, event *provider.Event) (eventResult, error) {
	inv := event.Invoice
	if inv == nil || inv.SubscriptionID == "" {
		return ignored(), nil
	}

	existing, err := s.repos.Payments.GetByInvoiceID(ctx, inv.ID)
	if err != nil {
		return eventResult{}, err
	}
	if existing != nil {
		return eventResult{outcome: metrics.WebhookOutcomeDuplicate}, nil
	}

	paidAt := eventTime(event)
	if inv.PaidAt != nil {
		paidAt = inv.PaidAt.UTC()
	}

	userID, err := s.subscriptionOwner(ctx, inv.SubscriptionID, inv.CustomerID)
	if err != nil {
		return eventResult{}, err
	}
	billing := &BillingEvent{
		EventID:         event.ID,
		Type:            event.Type,
		UserID:          userID,
		SubscriptionID:  inv.SubscriptionID,
		PaymentIntentID: inv.PaymentIntentID,
		Status:          model.PaymentStatusCompleted,
		Amount:          inv.AmountPaid,
		Currency:        strings.ToLower(inv.Currency),
		OccurredAt:      paidAt,
	}

	if inv.PaymentIntentID != "" {
		byIntent, err := s.repos.Payments.GetByPaymentIntentID(ctx, inv.PaymentIntentID)
		if err != nil {
			return eventResult{}, err
		}
		if byIntent != nil {
			if byIntent.Status == model.PaymentStatusCompleted {
				return eventResult{outcome: metrics.WebhookOutcomeDuplicate}, nil
			}
			if _, err := s.repos.Payments.MarkCompleted(ctx, inv.PaymentIntentID, &inv.ID, paidAt); err != nil {
				return eventResult{}, err
			}
			return eventResult{outcome: metrics.WebhookOutcomeApplied, billing: billing}, nil
		}
	}

	if userID == "" {
		s.logger.Warn("Paid invoice for unknown subscription",
			zap.String("event_id", event.ID),
			zap.String("invoice_id", inv.ID),
			zap.String("subscription_id", inv.SubscriptionID))
		return ignored(), nil
	}

	description := inv.Description
	if description == "" {
		description = "Subscription payment"
	}
	payment := &model.Payment{
		UserID:                   userID,
		ProcessorPaymentIntentID: stringPtr(inv.PaymentIntentID),
		ProcessorInvoiceID:       stringPtr(inv.ID),
		ProcessorSubscriptionID:  stringPtr(inv.SubscriptionID),
		Amount:                   inv.AmountPaid,
		Currency:                 normalizeCurrency(inv.Currency),
		Status:                   model.PaymentStatusCompleted,
		Description:              description,
		ServiceType:              "subscription",
		PaidAt:                   &paidAt,
		RawMetadata:              model.JSONB(inv.Raw),
	}
	if err := s.repos.Payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return eventResult{outcome: metrics.WebhookOutcomeDuplicate}, nil
		}
		return eventResult{}, err
	}

	return eventResult{outcome: metrics.WebhookOutcomeApplied, billing: billing}, nil
}

func (s *WebhookService) applyInvoicePaymentFailed(ctx context.Context, event *provider.Event) (eventResult, error) {
	inv := event.Invoice
	if inv == nil || inv.SubscriptionID == "" {
		return ignored(), nil
	}

	eventAt := eventTime(event)
	applied, err := s.repos.Subscriptions.UpdateStatus(ctx, inv.SubscriptionID, model.SubscriptionStatusPastDue, eventAt)
	if err != nil {
		return eventResult{}, err
	}
	if !applied {
		return eventResult{outcome: metrics.WebhookOutcomeStale}, nil
	}

	userID, err := s.subscriptionOwner(ctx, inv.SubscriptionID, inv.CustomerID)
	if err != nil {
		return eventResult{}, err
	}
	return eventResult{
		outcome: metrics.WebhookOutcomeApplied,
		billing: &BillingEvent{
			EventID:        event.ID,
			Type:           event.Type,
			UserID:         userID,
			SubscriptionID: inv.SubscriptionID,
			Status:         string(model.SubscriptionStatusPastDue),
			OccurredAt:     eventAt,
		},
	}, nil
}

func (s *WebhookService) applyPaymentIntentSucceeded(ctx context.Context, event *provider.Event) (eventResult, error) {
	pi := event.PaymentIntent
	if pi == nil || pi.ID == "" {
		return ignored(), nil
	}

	updated, err := s.repos.Payments.MarkCompleted(ctx, pi.ID, nil, eventTime(event))
	if err != nil {
		return eventResult{}, err
	}
	if !updated {
		return ignored(), nil
	}
	return eventResult{
		outcome: metrics.WebhookOutcomeApplied,
		billing: &BillingEvent{
			EventID:         event.ID,
			Type:            event.Type,
			UserID:          pi.Metadata["user_id"],
			PaymentIntentID: pi.ID,
			Status:          model.PaymentStatusCompleted,
			Amount:          pi.Amount,
			Currency:        strings.ToLower(pi.Currency),
			OccurredAt:      eventTime(event),
		},
	}, nil
}

func (s *WebhookService) applyPaymentIntentFailed(ctx context.Context, event *provider.Event) (eventResult, error) {
	pi := event.PaymentIntent
	if pi == nil || pi.ID == "" {
		return ignored(), nil
	}

	updated, err := s.repos.Payments.MarkFailed(ctx, pi.ID, pi.LastErrorMessage)
	if err != nil {
		return eventResult{}, err
	}
	if !updated {
		return ignored(), nil
	}
	return eventResult{
		outcome: metrics.WebhookOutcomeApplied,
		billing: &BillingEvent{
			EventID:         event.ID,
			Type:            event.Type,
			UserID:          pi.Metadata["user_id"],
			PaymentIntentID: pi.ID,
			Status:          model.PaymentStatusFailed,
			Amount:          pi.Amount,
			Currency:        strings.ToLower(pi.Currency),
			OccurredAt:      eventTime(event),
		},
	}, nil
}

func (s *WebhookService) applyAccountUpdated(ctx context.Context, event *provider.Event) (eventResult, error) {
	acct := event.Account
	if acct == nil || acct.ID == "" {
		return ignored(), nil
	}

	existing, err := s.repos.Accounts.GetByProcessorAccountID(ctx, acct.ID)
	if err != nil {
		return eventResult{}, err
	}
	if existing == nil {
		return ignored(), nil
	}

	if err := s.repos.Accounts.UpdateOnboardingStatus(ctx, acct.ID, acct.DetailsSubmitted, model.JSONB(acct.Raw)); err != nil {
		return eventResult{}, err
	}

	status := "onboarding"
	if acct.DetailsSubmitted {
		status = "onboarded"
	}
	return eventResult{
		outcome: metrics.WebhookOutcomeApplied,
		billing: &BillingEvent{
			EventID:    event.ID,
			Type:       event.Type,
			UserID:     existing.UserID,
			AccountID:  acct.ID,
			Status:     status,
			OccurredAt: eventTime(event),
		},
	}, nil
}

// resolveUserID prefers the user id stamped in metadata and falls back to
// the customer mapping.
func (s *WebhookService) resolveUserID(ctx context.Context, metadataUserID, customerID string) (string, error) {
	if metadataUserID != "" {
		return metadataUserID, nil
	}
	if customerID == "" {
		return "", nil
	}
	mapping, err := s.repos.CustomerMappings.GetByProviderCustomerID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if mapping == nil {
		return "", nil
	}
	return mapping.UserID, nil
}

func (s *WebhookService) subscriptionOwner(ctx context.Context, subscriptionID, customerID string) (string, error) {
	sub, err := s.repos.Subscriptions.GetByProcessorID(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub != nil {
		return sub.UserID, nil
	}
	return s.resolveUserID(ctx, "", customerID)
}
