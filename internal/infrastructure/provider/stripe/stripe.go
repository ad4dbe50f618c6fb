package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"go.uber.org/zap"
)

// metadataUserID is the metadata key that ties processor objects to a user.
const metadataUserID = "user_id"

// StripeProvider implements provider.PaymentProcessor with a per-process
// stripe client. It never touches the package level stripe.Key.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider wraps an initialized stripe client.
func NewStripeProvider(api *client.API, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:    api,
		logger: logger.Named("stripe"),
	}
}

// NewClient builds a stripe client whose SDK logging goes through zap.
// Network retries are disabled; callers decide whether to re-invoke.
func NewClient(secretKey string, logger *zap.Logger) *client.API {
	return client.New(secretKey, NewBackends(logger, nil))
}

// NewBackends returns stripe backends. baseURL overrides the API host and is
// only set in tests.
func NewBackends(logger *zap.Logger, baseURL *string) *stripe.Backends {
	cfg := &stripe.BackendConfig{
		LeveledLogger:     logger.Named("stripe.sdk").Sugar(),
		MaxNetworkRetries: stripe.Int64(0),
		URL:               baseURL,
	}
	return &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}
}

func (s *StripeProvider) CreateAccount(ctx context.Context, req *provider.CreateAccountRequest) (*provider.Account, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String(req.Country),
		Email:        stripe.String(req.Email),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		Metadata: map[string]string{metadataUserID: req.UserID},
	}
	if req.Name != "" {
		params.Metadata["name"] = req.Name
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	acct, err := s.api.Accounts.New(params)
	if err != nil {
		s.logger.Error("Failed to create connected account",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, providerError(err)
	}

	s.logger.Info("Created connected account",
		zap.String("user_id", req.UserID),
		zap.String("account_id", acct.ID))
	return toAccount(acct), nil
}

func (s *StripeProvider) GetAccount(ctx context.Context, accountID string) (*provider.Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := s.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, providerError(err)
	}
	return toAccount(acct), nil
}

func (s *StripeProvider) CreateAccountLink(ctx context.Context, req *provider.CreateAccountLinkRequest) (*provider.AccountLink, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(req.AccountID),
		RefreshURL: stripe.String(req.RefreshURL),
		ReturnURL:  stripe.String(req.ReturnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx

	link, err := s.api.AccountLinks.New(params)
	if err != nil {
		s.logger.Error("Failed to create account link",
			zap.String("account_id", req.AccountID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return &provider.AccountLink{URL: link.URL, ExpiresAt: unixTime(link.ExpiresAt)}, nil
}

func (s *StripeProvider) FindCustomerByUserID(ctx context.Context, userID string) (*provider.Customer, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['%s']:'%s'", metadataUserID, escapeSearchValue(userID)),
			Context: ctx,
			Limit:   stripe.Int64(1),
		},
	}

	iter := s.api.Customers.Search(params)
	if iter.Next() {
		c := iter.Customer()
		return &provider.Customer{ID: c.ID, Email: c.Email}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, providerError(err)
	}
	return nil, nil
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		Metadata: map[string]string{metadataUserID: req.UserID},
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	c, err := s.api.Customers.New(params)
	if err != nil {
		s.logger.Error("Failed to create customer",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return &provider.Customer{ID: c.ID, Email: c.Email}, nil
}

func (s *StripeProvider) CreateSubscription(ctx context.Context, req *provider.CreateSubscriptionRequest) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(req.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
		Metadata: map[string]string{
			metadataUserID: req.UserID,
			"plan_name":    req.PlanName,
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		s.logger.Error("Failed to create subscription",
			zap.String("customer_id", req.CustomerID),
			zap.String("price_id", req.PriceID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return toSubscription(sub, toMap(sub)), nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, providerError(err)
	}
	return toSubscription(sub, toMap(sub)), nil
}

func (s *StripeProvider) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		s.logger.Error("Failed to cancel subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return toSubscription(sub, toMap(sub)), nil
}

func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*provider.PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create billing portal session",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return &provider.PortalSession{ID: session.ID, URL: session.URL}, nil
}

func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, req *provider.CreatePaymentIntentRequest) (*provider.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Metadata:           req.Metadata,
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.DestinationAccountID != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.DestinationAccountID),
		}
	}
	if req.ApplicationFeeAmount != nil {
		params.ApplicationFeeAmount = stripe.Int64(*req.ApplicationFeeAmount)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.Int64("amount", req.Amount),
			zap.String("destination", req.DestinationAccountID),
			zap.Error(err))
		return nil, providerError(err)
	}
	return toPaymentIntent(pi, toMap(pi)), nil
}

func (s *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*provider.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, providerError(err)
	}
	return toPaymentIntent(pi, toMap(pi)), nil
}

func (s *StripeProvider) GetPrice(ctx context.Context, priceID string) (*provider.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	p, err := s.api.Prices.Get(priceID, params)
	if err != nil {
		return nil, providerError(err)
	}

	price := &provider.Price{
		ID:        p.ID,
		Active:    p.Active,
		Recurring: p.Type == stripe.PriceTypeRecurring,
		Currency:  string(p.Currency),
		Amount:    p.UnitAmount,
	}
	if p.Recurring != nil {
		price.Interval = string(p.Recurring.Interval)
	}
	return price, nil
}

// providerError keeps the processor's own message for the client.
func providerError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = err.Error()
		}
		return &provider.ProviderError{Code: string(stripeErr.Code), Message: msg}
	}
	return &provider.ProviderError{Code: "api_connection_error", Message: err.Error()}
}

func escapeSearchValue(v string) string {
	return strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `'`, `\'`)
}
