package provider

import (
	"context"

	"github.com/zerovacancy/payments/internal/config"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/domain/provider"
	stripeProvider "github.com/zerovacancy/payments/internal/infrastructure/provider/stripe"
	"go.uber.org/zap"
)

// Factory builds the processor client and webhook verifier from config.
type Factory struct {
	config *config.ServiceConfig
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.ServiceConfig, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// Processor returns the Stripe processor. Without a secret key the service
// still starts, and every processor call fails with a configuration error.
func (f *Factory) Processor() provider.PaymentProcessor {
	if f.config.StripeSecretKey == "" {
		f.logger.Error("Stripe secret key not configured; processor calls will fail")
		return &unconfiguredProcessor{}
	}

	return stripeProvider.NewStripeProvider(
		stripeProvider.NewClient(f.config.StripeSecretKey, f.logger),
		f.logger,
	)
}

// Verifier returns the webhook signature verifier.
func (f *Factory) Verifier() provider.EventVerifier {
	return stripeProvider.NewEventVerifier()
}

type unconfiguredProcessor struct{}

func notConfigured() error {
	return domainErrors.NewConfigurationError("STRIPE_SECRET_KEY is not configured")
}

func (unconfiguredProcessor) CreateAccount(context.Context, *provider.CreateAccountRequest) (*provider.Account, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) GetAccount(context.Context, string) (*provider.Account, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CreateAccountLink(context.Context, *provider.CreateAccountLinkRequest) (*provider.AccountLink, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) FindCustomerByUserID(context.Context, string) (*provider.Customer, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CreateCustomer(context.Context, *provider.CreateCustomerRequest) (*provider.Customer, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CreateSubscription(context.Context, *provider.CreateSubscriptionRequest) (*provider.Subscription, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) GetSubscription(context.Context, string) (*provider.Subscription, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CancelSubscriptionAtPeriodEnd(context.Context, string) (*provider.Subscription, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CreatePortalSession(context.Context, string, string) (*provider.PortalSession, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) CreatePaymentIntent(context.Context, *provider.CreatePaymentIntentRequest) (*provider.PaymentIntent, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) GetPaymentIntent(context.Context, string) (*provider.PaymentIntent, error) {
	return nil, notConfigured()
}

func (unconfiguredProcessor) GetPrice(context.Context, string) (*provider.Price, error) {
	return nil, notConfigured()
}
