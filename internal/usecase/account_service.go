package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/domain/dto"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
)

// AccountService keeps exactly one connected payout account per user and
// drives its onboarding.
type AccountService struct {
	accountRepo repository.ConnectedAccountRepository
	processor   provider.PaymentProcessor
	config      config.ServiceConfig
	logger      *zap.Logger
}

// NewAccountService creates a new account service instance
func NewAccountService(
	accountRepo repository.ConnectedAccountRepository,
	processor provider.PaymentProcessor,
	cfg config.ServiceConfig,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		processor:   processor,
		config:      cfg,
		logger:      logger.Named("account"),
	}
}

// CheckOrCreateAccount returns the user's connected account, creating it on
// first call. An onboarding link is issued until the processor reports the
// account details as submitted.
func (s *AccountService) CheckOrCreateAccount(ctx context.Context, req dto.CreateConnectAccountRequest) (*dto.ConnectAccountResponse, error) {
	if err := requireFields("userId", req.UserID, "email", req.Email); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}
	if existing != nil {
		return s.refreshOnboarding(ctx, existing)
	}

	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = s.defaultCountry()
	}

	acct, err := s.processor.CreateAccount(ctx, &provider.CreateAccountRequest{
		UserID:         req.UserID,
		Email:          req.Email,
		Name:           req.Name,
		Country:        country,
		IdempotencyKey: accountIdempotencyKey(req.UserID, req.Email, req.Name, country),
	})
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	row := &model.ConnectedAccount{
		UserID:             req.UserID,
		ProcessorAccountID: acct.ID,
		Email:              req.Email,
		Country:            country,
		Onboarded:          acct.DetailsSubmitted,
		RawMetadata:        model.JSONB(acct.Raw),
	}
	if err := s.accountRepo.Create(ctx, row); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			s.logger.Error("Connected account created at processor but not stored",
				zap.String("user_id", req.UserID),
				zap.String("account_id", acct.ID),
				zap.Error(err))
			return nil, domainErrors.Upstream(err)
		}

		// A concurrent call stored the row first. Identical requests share the
		// idempotency key and so the processor account; differing ones do not.
		existing, err = s.accountRepo.GetByUserID(ctx, req.UserID)
		if err != nil {
			return nil, domainErrors.Upstream(err)
		}
		if existing == nil {
			return nil, domainErrors.NewUpstreamError(errors.New("connected account disappeared after conflict"))
		}
		if existing.ProcessorAccountID != acct.ID {
			s.logger.Warn("Connected account orphaned by concurrent create",
				zap.String("user_id", req.UserID),
				zap.String("kept_account_id", existing.ProcessorAccountID),
				zap.String("orphaned_account_id", acct.ID))
		}
		return s.refreshOnboarding(ctx, existing)
	}

	s.logger.Info("Connected account created",
		zap.String("user_id", req.UserID),
		zap.String("account_id", acct.ID))

	if acct.DetailsSubmitted {
		return &dto.ConnectAccountResponse{AccountID: acct.ID, IsFullyOnboarded: true}, nil
	}
	return s.withOnboardingLink(ctx, acct.ID)
}

func (s *AccountService) refreshOnboarding(ctx context.Context, existing *model.ConnectedAccount) (*dto.ConnectAccountResponse, error) {
	acct, err := s.processor.GetAccount(ctx, existing.ProcessorAccountID)
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	if err := s.accountRepo.UpdateOnboardingStatus(ctx, acct.ID, acct.DetailsSubmitted, model.JSONB(acct.Raw)); err != nil {
		return nil, domainErrors.Upstream(err)
	}

	if acct.DetailsSubmitted {
		return &dto.ConnectAccountResponse{AccountID: acct.ID, IsFullyOnboarded: true}, nil
	}
	return s.withOnboardingLink(ctx, acct.ID)
}

func (s *AccountService) withOnboardingLink(ctx context.Context, accountID string) (*dto.ConnectAccountResponse, error) {
	link, err := s.processor.CreateAccountLink(ctx, &provider.CreateAccountLinkRequest{
		AccountID:  accountID,
		RefreshURL: s.config.ClientPath(s.config.Connect.RefreshPath),
		ReturnURL:  s.config.ClientPath(s.config.Connect.ReturnPath),
	})
	if err != nil {
		return nil, domainErrors.Upstream(err)
	}

	return &dto.ConnectAccountResponse{
		AccountID:        accountID,
		AccountLink:      link.URL,
		IsFullyOnboarded: false,
	}, nil
}

func (s *AccountService) defaultCountry() string {
	if s.config.DefaultCountry != "" {
		return strings.ToUpper(s.config.DefaultCountry)
	}
	return "US"
}

// accountIdempotencyKey is stable for identical requests and changes with
// any parameter sent to the processor.
func accountIdempotencyKey(userID, email, name, country string) string {
	params := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join([]string{email, name, country}, "\x00")))
	return "connect-account-" + userID + "-" + params.String()
}
