package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zerovacancy/payments/internal/domain/dto"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	defaultCurrency = "usd"

	serviceTypeOneOff = "one_off"
)

// platformFeeRate is the fixed marketplace commission.
var platformFeeRate = decimal.New(20, -2)

// PlatformFee is amount * 20% rounded half-up to a whole minor unit.
func PlatformFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(platformFeeRate).Round(0).IntPart()
}

// PaymentService creates payment intents and verifies their outcome.
type PaymentService struct {
	accountRepo      repository.ConnectedAccountRepository
	paymentRepo      repository.PaymentRepository
	subscriptionRepo repository.SubscriptionRepository
	processor        provider.PaymentProcessor
	logger           *zap.Logger
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(
	accountRepo repository.ConnectedAccountRepository,
	paymentRepo repository.PaymentRepository,
	subscriptionRepo repository.SubscriptionRepository,
	processor provider.PaymentProcessor,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		accountRepo:      accountRepo,
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		processor:        processor,
		logger:           logger.Named("payment"),
	}
}

// CreateMarketplacePayment charges the caller and routes the funds, minus the
// platform fee, to the connected account.
func (s *PaymentService) CreateMarketplacePayment(ctx context.Context, req dto.CreateConnectPaymentRequest) (*dto.PaymentIntentResponse, error) {
	if err := requireFields("userId", req.UserID, "connectAccountId", req.ConnectAccountID); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount must be a positive integer")
	}

	account, err := s.accountRepo.GetByProcessorAccountID(ctx, req.ConnectAccountID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}
	if account == nil {
		return nil, domainErrors.NewNotFoundError("Connected account not found", domainErrors.ErrConnectedAccountNotFound)
	}

	currency := normalizeCurrency(req.Currency)
	fee := PlatformFee(req.Amount)

	metadata := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["user_id"] = req.UserID
	metadata["photographer_id"] = account.UserID
	metadata["platform_fee"] = strconv.FormatInt(fee, 10)
	if req.ServiceType != "" {
		metadata["service_type"] = req.ServiceType
	}

	pi, err := s.processor.CreatePaymentIntent(ctx, &provider.CreatePaymentIntentRequest{
		Amount:               req.Amount,
		Currency:             currency,
		Description:          req.Description,
		DestinationAccountID: account.ProcessorAccountID,
		ApplicationFeeAmount: &fee,
		Metadata:             metadata,
		IdempotencyKey:       req.IdempotencyKey,
	})
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	payment := &model.Payment{
		UserID:                    req.UserID,
		PhotographerID:            stringPtr(account.UserID),
		ProcessorPaymentIntentID:  stringPtr(pi.ID),
		ProcessorConnectAccountID: stringPtr(account.ProcessorAccountID),
		Amount:                    req.Amount,
		PlatformFee:               &fee,
		Currency:                  currency,
		Status:                    pi.Status,
		Description:               req.Description,
		ServiceType:               req.ServiceType,
		RawMetadata:               model.JSONB(pi.Raw),
	}
	if err := s.recordPayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Marketplace payment created",
		zap.String("user_id", req.UserID),
		zap.String("payment_intent_id", pi.ID),
		zap.String("connect_account_id", account.ProcessorAccountID),
		zap.Int64("amount", req.Amount),
		zap.Int64("platform_fee", fee))

	return &dto.PaymentIntentResponse{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
	}, nil
}

// CreateSimplePayment charges the caller without a marketplace split.
func (s *PaymentService) CreateSimplePayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.PaymentIntentResponse, error) {
	if err := requireFields("userId", req.UserID); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount must be a positive integer")
	}

	currency := normalizeCurrency(req.Currency)
	pi, err := s.processor.CreatePaymentIntent(ctx, &provider.CreatePaymentIntentRequest{
		Amount:         req.Amount,
		Currency:       currency,
		Metadata:       map[string]string{"user_id": req.UserID},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	payment := &model.Payment{
		UserID:                   req.UserID,
		ProcessorPaymentIntentID: stringPtr(pi.ID),
		Amount:                   req.Amount,
		Currency:                 currency,
		Status:                   model.PaymentStatusPending,
		ServiceType:              serviceTypeOneOff,
		RawMetadata:              model.JSONB(pi.Raw),
	}
	if err := s.recordPayment(ctx, payment); err != nil {
		return nil, err
	}

	return &dto.PaymentIntentResponse{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
	}, nil
}

// recordPayment tolerates a row that already exists for the intent, which
// happens when a client retries with the same idempotency key.
func (s *PaymentService) recordPayment(ctx context.Context, payment *model.Payment) error {
	err := s.paymentRepo.Create(ctx, payment)
	if err == nil || errors.Is(err, repository.ErrAlreadyExists) {
		return nil
	}
	s.logger.Error("Payment intent created at processor but not stored",
		zap.String("user_id", payment.UserID),
		zap.Stringp("payment_intent_id", payment.ProcessorPaymentIntentID),
		zap.Error(err))
	return domainErrors.Upstream(err)
}

// VerifyPayment confirms that the payment intent has succeeded and attaches
// the user's most recent subscription when one exists.
func (s *PaymentService) VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	if err := requireFields("paymentIntentId", req.PaymentIntentID, "userId", req.UserID); err != nil {
		return nil, err
	}

	pi, err := s.processor.GetPaymentIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	if owner := pi.Metadata["user_id"]; owner != "" && owner != req.UserID {
		s.logger.Warn("Payment verification by non-owner",
			zap.String("user_id", req.UserID),
			zap.String("payment_intent_id", pi.ID))
		return nil, domainErrors.NewNotFoundOrForbiddenError("Payment not found", nil)
	}

	if pi.Status != provider.PaymentIntentStatusSucceeded {
		return nil, domainErrors.NewPaymentNotSucceededError(pi.Status)
	}

	resp := &dto.VerifyPaymentResponse{
		Success: true,
		PaymentIntent: dto.PaymentIntentSummary{
			ID:       pi.ID,
			Status:   pi.Status,
			Amount:   pi.Amount,
			Currency: strings.ToLower(pi.Currency),
		},
	}

	sub, err := s.subscriptionRepo.GetLatestForUser(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("Failed to load latest subscription",
			zap.String("user_id", req.UserID),
			zap.Error(err))
	}
	if sub != nil {
		resp.Subscription = &dto.SubscriptionSummary{
			SubscriptionID:   sub.ProcessorSubscriptionID,
			PlanName:         sub.PlanName,
			Status:           string(sub.Status),
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
			CancelAt:         sub.CancelAt,
		}
	}

	return resp, nil
}
