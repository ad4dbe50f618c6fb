package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	adapterRepo "github.com/zerovacancy/payments/internal/adapter/repository"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/domain/dto"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"github.com/zerovacancy/payments/internal/testutil"
	"github.com/zerovacancy/payments/internal/usecase"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
	"go.uber.org/zap"
)

func testServiceConfig() config.ServiceConfig {
	return config.ServiceConfig{
		ClientURL:        "https://app.zerovacancy.test/",
		DefaultCountry:   "US",
		PortalReturnPath: "/account/billing",
		Connect: config.ConnectConfig{
			RefreshPath: "/connect/refresh",
			ReturnPath:  "/connect/complete",
		},
	}
}

func TestAccountService_CheckOrCreateAccount(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("validation", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(adapterRepo.NewConnectedAccountRepository(db, logger), processor, testServiceConfig(), logger)

		_, err := service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{Email: "a@b.co"})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.ErrValidation, pkgerrors.CodeOf(err))
		assert.Equal(t, "userId is required", pkgerrors.ClientMessage(err))

		_, err = service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{UserID: "u1"})
		assert.Equal(t, "email is required", pkgerrors.ClientMessage(err))
		processor.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("create then fetch returns the same account", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		accounts := adapterRepo.NewConnectedAccountRepository(db, logger)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(accounts, processor, testServiceConfig(), logger)

		processor.On("CreateAccount", ctx, mock.MatchedBy(func(req *provider.CreateAccountRequest) bool {
			return req.UserID == "u1" && req.Country == "US" && strings.HasPrefix(req.IdempotencyKey, "connect-account-u1-")
		})).Return(&provider.Account{ID: "acct_1", Country: "US"}, nil).Once()
		processor.On("GetAccount", ctx, "acct_1").
			Return(&provider.Account{ID: "acct_1", Country: "US"}, nil).Once()
		processor.On("CreateAccountLink", ctx, &provider.CreateAccountLinkRequest{
			AccountID:  "acct_1",
			RefreshURL: "https://app.zerovacancy.test/connect/refresh",
			ReturnURL:  "https://app.zerovacancy.test/connect/complete",
		}).Return(&provider.AccountLink{URL: "https://connect.stripe.test/setup/1"}, nil).Twice()

		req := dto.CreateConnectAccountRequest{UserID: "u1", Email: "photo@zerovacancy.test", Name: "Pat"}
		first, err := service.CheckOrCreateAccount(ctx, req)
		require.NoError(t, err)
		second, err := service.CheckOrCreateAccount(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "acct_1", first.AccountID)
		assert.Equal(t, first.AccountID, second.AccountID)
		assert.False(t, first.IsFullyOnboarded)
		assert.Equal(t, "https://connect.stripe.test/setup/1", second.AccountLink)

		stored, err := accounts.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "US", stored.Country)
		processor.AssertExpectations(t)
	})

	t.Run("onboarded account gets no link", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		accounts := adapterRepo.NewConnectedAccountRepository(db, logger)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(accounts, processor, testServiceConfig(), logger)

		processor.On("CreateAccount", ctx, mock.Anything).
			Return(&provider.Account{ID: "acct_2"}, nil).Once()
		processor.On("CreateAccountLink", ctx, mock.Anything).
			Return(&provider.AccountLink{URL: "https://connect.stripe.test/setup/2"}, nil).Once()
		processor.On("GetAccount", ctx, "acct_2").
			Return(&provider.Account{ID: "acct_2", DetailsSubmitted: true, Raw: map[string]interface{}{"id": "acct_2"}}, nil).Once()

		req := dto.CreateConnectAccountRequest{UserID: "u2", Email: "b@zerovacancy.test", Country: "ca"}
		_, err := service.CheckOrCreateAccount(ctx, req)
		require.NoError(t, err)

		resp, err := service.CheckOrCreateAccount(ctx, req)
		require.NoError(t, err)
		assert.True(t, resp.IsFullyOnboarded)
		assert.Empty(t, resp.AccountLink)

		stored, err := accounts.GetByUserID(ctx, "u2")
		require.NoError(t, err)
		assert.True(t, stored.Onboarded)
		assert.NotNil(t, stored.OnboardedAt)
		assert.Equal(t, "CA", stored.Country)
	})

	t.Run("processor failure keeps its message", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		accounts := adapterRepo.NewConnectedAccountRepository(db, logger)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(accounts, processor, testServiceConfig(), logger)

		processor.On("CreateAccount", ctx, mock.Anything).
			Return(nil, &provider.ProviderError{Code: "invalid_request_error", Message: "Country 'ZZ' is unknown"}).Once()

		_, err := service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{UserID: "u3", Email: "c@zerovacancy.test", Country: "ZZ"})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.ErrUpstream, pkgerrors.CodeOf(err))
		assert.Equal(t, "Country 'ZZ' is unknown", pkgerrors.ClientMessage(err))

		stored, err := accounts.GetByUserID(ctx, "u3")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("unconfigured processor is a configuration error", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(adapterRepo.NewConnectedAccountRepository(db, logger), processor, testServiceConfig(), logger)

		configErr := pkgerrors.NewAppError(pkgerrors.ErrConfiguration, "STRIPE_SECRET_KEY is not configured", errors.New("not configured"))
		processor.On("CreateAccount", ctx, mock.Anything).Return(nil, configErr).Once()

		_, err := service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{UserID: "u4", Email: "d@zerovacancy.test"})
		assert.Equal(t, pkgerrors.ErrConfiguration, pkgerrors.CodeOf(err))
	})
}

// racingAccounts stores a competing row for the same user just before the
// caller's insert, as a concurrent request would.
type racingAccounts struct {
	repository.ConnectedAccountRepository
	competitor *model.ConnectedAccount
}

func (r *racingAccounts) Create(ctx context.Context, account *model.ConnectedAccount) error {
	if r.competitor != nil {
		competitor := r.competitor
		r.competitor = nil
		if err := r.ConnectedAccountRepository.Create(ctx, competitor); err != nil {
			return err
		}
	}
	return r.ConnectedAccountRepository.Create(ctx, account)
}

func TestAccountService_CheckOrCreateAccount_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	db := testutil.NewTestDB(t)
	accounts := &racingAccounts{
		ConnectedAccountRepository: adapterRepo.NewConnectedAccountRepository(db, logger),
		competitor: &model.ConnectedAccount{
			UserID:             "u1",
			ProcessorAccountID: "acct_1",
			Email:              "photo@zerovacancy.test",
			Country:            "US",
		},
	}
	processor := new(MockProcessor)
	service := usecase.NewAccountService(accounts, processor, testServiceConfig(), logger)

	processor.On("CreateAccount", ctx, mock.Anything).
		Return(&provider.Account{ID: "acct_1", Country: "US"}, nil).Once()
	processor.On("GetAccount", ctx, "acct_1").
		Return(&provider.Account{ID: "acct_1", DetailsSubmitted: true, Raw: map[string]interface{}{"id": "acct_1"}}, nil).Once()

	resp, err := service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{UserID: "u1", Email: "photo@zerovacancy.test"})
	require.NoError(t, err)
	assert.Equal(t, "acct_1", resp.AccountID)
	assert.True(t, resp.IsFullyOnboarded)

	var count int64
	require.NoError(t, db.Model(&model.ConnectedAccount{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := accounts.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, stored.Onboarded)
	processor.AssertExpectations(t)
	processor.AssertNotCalled(t, "CreateAccountLink", mock.Anything, mock.Anything)
}

func TestAccountService_IdempotencyKeyFollowsRequest(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	keyFor := func(req dto.CreateConnectAccountRequest) string {
		db := testutil.NewTestDB(t)
		processor := new(MockProcessor)
		service := usecase.NewAccountService(adapterRepo.NewConnectedAccountRepository(db, logger), processor, testServiceConfig(), logger)

		var key string
		processor.On("CreateAccount", ctx, mock.MatchedBy(func(r *provider.CreateAccountRequest) bool {
			key = r.IdempotencyKey
			return true
		})).Return(&provider.Account{ID: "acct_" + req.UserID, DetailsSubmitted: true}, nil).Once()

		_, err := service.CheckOrCreateAccount(ctx, req)
		require.NoError(t, err)
		return key
	}

	base := dto.CreateConnectAccountRequest{UserID: "u1", Email: "photo@zerovacancy.test", Name: "Pat", Country: "us"}
	renamed := base
	renamed.Name = "Pat Lee"
	moved := base
	moved.Country = "CA"

	first := keyFor(base)
	assert.True(t, strings.HasPrefix(first, "connect-account-u1-"))
	assert.Equal(t, first, keyFor(base))
	assert.NotEqual(t, first, keyFor(renamed))
	assert.NotEqual(t, first, keyFor(moved))
}

func TestAccountService_CheckOrCreateAccount_ConcurrentCreateKeepsFirstRow(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	db := testutil.NewTestDB(t)
	accounts := &racingAccounts{
		ConnectedAccountRepository: adapterRepo.NewConnectedAccountRepository(db, logger),
		competitor: &model.ConnectedAccount{
			UserID:             "u1",
			ProcessorAccountID: "acct_first",
			Email:              "photo@zerovacancy.test",
			Country:            "CA",
		},
	}
	processor := new(MockProcessor)
	service := usecase.NewAccountService(accounts, processor, testServiceConfig(), logger)

	processor.On("CreateAccount", ctx, mock.Anything).
		Return(&provider.Account{ID: "acct_second", Country: "US"}, nil).Once()
	processor.On("GetAccount", ctx, "acct_first").
		Return(&provider.Account{ID: "acct_first"}, nil).Once()
	processor.On("CreateAccountLink", ctx, mock.MatchedBy(func(req *provider.CreateAccountLinkRequest) bool {
		return req.AccountID == "acct_first"
	})).Return(&provider.AccountLink{URL: "https://connect.stripe.test/setup/acct_first"}, nil).Once()

	resp, err := service.CheckOrCreateAccount(ctx, dto.CreateConnectAccountRequest{UserID: "u1", Email: "photo@zerovacancy.test"})
	require.NoError(t, err)
	assert.Equal(t, "acct_first", resp.AccountID)
	assert.False(t, resp.IsFullyOnboarded)
	assert.Equal(t, "https://connect.stripe.test/setup/acct_first", resp.AccountLink)
	processor.AssertExpectations(t)
}
