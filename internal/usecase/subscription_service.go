package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zerovacancy/payments/internal/catalog"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/domain/dto"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
)

const cancelAtPeriodEndMessage = "Subscription will be canceled at the end of the billing period"

// SubscriptionService creates, cancels and manages recurring subscriptions.
// Rows it writes are optimistic; the webhook reconciler has the final say.
type SubscriptionService struct {
	customerMappingRepo repository.CustomerMappingRepository
	subscriptionRepo    repository.SubscriptionRepository
	processor           provider.PaymentProcessor
	plans               *catalog.Catalog
	config              config.ServiceConfig
	logger              *zap.Logger
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(
	customerMappingRepo repository.CustomerMappingRepository,
	subscriptionRepo repository.SubscriptionRepository,
	processor provider.PaymentProcessor,
	plans *catalog.Catalog,
	cfg config.ServiceConfig,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		customerMappingRepo: customerMappingRepo,
		subscriptionRepo:    subscriptionRepo,
		processor:           processor,
		plans:               plans,
		config:              cfg,
		logger:              logger.Named("subscription"),
	}
}

// CreateSubscription subscribes the user to the named plan with an
// incomplete first invoice. The returned client secret confirms that invoice.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if err := requireFields("packageName", req.PackageName, "userId", req.UserID); err != nil {
		return nil, err
	}

	plan, ok := s.plans.Lookup(req.PackageName)
	if !ok {
		return nil, domainErrors.NewInvalidPlanError(req.PackageName)
	}

	customerID, err := s.ensureCustomer(ctx, req.UserID, req.Email)
	if err != nil {
		return nil, err
	}

	sub, err := s.processor.CreateSubscription(ctx, &provider.CreateSubscriptionRequest{
		CustomerID: customerID,
		PriceID:    plan.PriceID,
		UserID:     req.UserID,
		PlanName:   plan.Name,
	})
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}
	if sub.ClientSecret == "" {
		s.logger.Error("Subscription created without a payment intent",
			zap.String("user_id", req.UserID),
			zap.String("subscription_id", sub.ID))
		return nil, domainErrors.NewUpstreamError(errors.New("subscription has no payment to confirm"))
	}

	row := &model.Subscription{
		UserID:                  req.UserID,
		ProcessorCustomerID:     customerID,
		ProcessorSubscriptionID: sub.ID,
		PlanID:                  plan.PriceID,
		PlanName:                plan.Name,
		Status:                  model.SubscriptionStatusFromProcessor(sub.Status, sub.CancelAtPeriodEnd),
		CurrentPeriodStart:      sub.CurrentPeriodStart,
		CurrentPeriodEnd:        sub.CurrentPeriodEnd,
		CancelAt:                sub.CancelAt,
		RawMetadata:             model.JSONB(sub.Raw),
	}
	if err := s.subscriptionRepo.Create(ctx, row); err != nil {
		// The created event can land before this write; that row wins.
		if !errors.Is(err, repository.ErrAlreadyExists) {
			s.logger.Error("Subscription created at processor but not stored",
				zap.String("user_id", req.UserID),
				zap.String("subscription_id", sub.ID),
				zap.Error(err))
			return nil, domainErrors.Upstream(err)
		}
	}

	s.logger.Info("Subscription created",
		zap.String("user_id", req.UserID),
		zap.String("subscription_id", sub.ID),
		zap.String("plan", plan.Name))

	return &dto.CreateSubscriptionResponse{
		SubscriptionID: sub.ID,
		ClientSecret:   sub.ClientSecret,
	}, nil
}

// ensureCustomer returns the user's processor customer. A reservation row
// keyed by user id is written first so that concurrent callers converge on
// one customer: the loser of the insert re-reads the winner's row, and the
// reservation token doubles as the processor idempotency key.
func (s *SubscriptionService) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	mapping, err := s.customerMappingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", domainErrors.Upstream(err)
	}
	if mapping != nil && mapping.HasCustomer() {
		return *mapping.ProviderCustomerID, nil
	}

	if mapping == nil {
		if _, err := s.customerMappingRepo.Reserve(ctx, userID, email, uuid.New()); err != nil {
			return "", domainErrors.Upstream(err)
		}
		mapping, err = s.customerMappingRepo.GetByUserID(ctx, userID)
		if err != nil {
			return "", domainErrors.Upstream(err)
		}
		if mapping == nil {
			return "", domainErrors.NewUpstreamError(errors.New("customer reservation not found"))
		}
		if mapping.HasCustomer() {
			return *mapping.ProviderCustomerID, nil
		}
	}

	// Customers created before reservations existed carry the user id in metadata.
	customer, err := s.processor.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return "", domainErrors.Upstream(err)
	}
	if customer == nil {
		if email == "" {
			email = mapping.CustomerEmail
		}
		customer, err = s.processor.CreateCustomer(ctx, &provider.CreateCustomerRequest{
			UserID:         userID,
			Email:          email,
			IdempotencyKey: "customer-" + mapping.ReservationToken.String(),
		})
		if err != nil {
			return "", domainErrors.Upstream(err)
		}
		s.logger.Info("Customer created",
			zap.String("user_id", userID),
			zap.String("customer_id", customer.ID))
	}

	if err := s.customerMappingRepo.AttachCustomer(ctx, userID, customer.ID); err != nil {
		return "", domainErrors.Upstream(err)
	}
	return customer.ID, nil
}

// CancelSubscription schedules cancellation at the end of the current period.
// The caller must own the subscription.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, req dto.SubscriptionActionRequest) (*dto.CancelSubscriptionResponse, error) {
	if _, err := s.ownedSubscription(ctx, req); err != nil {
		return nil, err
	}

	sub, err := s.processor.CancelSubscriptionAtPeriodEnd(ctx, req.SubscriptionID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	cancelAt := sub.CancelAt
	if cancelAt == nil {
		cancelAt = sub.CurrentPeriodEnd
	}
	if err := s.subscriptionRepo.MarkCanceling(ctx, req.SubscriptionID, cancelAt); err != nil {
		return nil, domainErrors.Upstream(err)
	}

	s.logger.Info("Subscription scheduled for cancellation",
		zap.String("user_id", req.UserID),
		zap.String("subscription_id", req.SubscriptionID))

	return &dto.CancelSubscriptionResponse{
		Success: true,
		Message: cancelAtPeriodEndMessage,
	}, nil
}

// CreateBillingPortalSession opens a processor hosted page where the owner
// can update the payment method.
func (s *SubscriptionService) CreateBillingPortalSession(ctx context.Context, req dto.SubscriptionActionRequest) (*dto.PortalSessionResponse, error) {
	if _, err := s.ownedSubscription(ctx, req); err != nil {
		return nil, err
	}

	sub, err := s.processor.GetSubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	session, err := s.processor.CreatePortalSession(ctx, sub.CustomerID, s.config.ClientPath(s.config.PortalReturnPath))
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	return &dto.PortalSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *SubscriptionService) ownedSubscription(ctx context.Context, req dto.SubscriptionActionRequest) (*model.Subscription, error) {
	if err := requireFields("subscriptionId", req.SubscriptionID, "userId", req.UserID); err != nil {
		return nil, err
	}

	sub, err := s.subscriptionRepo.GetForUser(ctx, req.UserID, req.SubscriptionID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}
	if sub == nil {
		s.logger.Warn("Subscription lookup did not match caller",
			zap.String("user_id", req.UserID),
			zap.String("subscription_id", req.SubscriptionID))
		return nil, domainErrors.NewNotFoundOrForbiddenError("Subscription not found", domainErrors.ErrSubscriptionNotOwned)
	}
	return sub, nil
}
