// Package provider is the port between the orchestrators and the payment
// processor. Types here carry only the fields the orchestrators use.
package provider

import (
	"context"
	"time"
)

// PaymentProcessor is the processor client used by the orchestrators.
type PaymentProcessor interface {
	CreateAccount(ctx context.Context, req *CreateAccountRequest) (*Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	CreateAccountLink(ctx context.Context, req *CreateAccountLinkRequest) (*AccountLink, error)

	// FindCustomerByUserID returns nil, nil when no customer carries the user id.
	FindCustomerByUserID(ctx context.Context, userID string) (*Customer, error)
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)

	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)

	CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	GetPrice(ctx context.Context, priceID string) (*Price, error)
}

// EventVerifier authenticates and decodes webhook deliveries.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature, secret string) (*Event, error)
}

type Account struct {
	ID               string
	Country          string
	Email            string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
	Metadata         map[string]string
	// Raw is a snapshot of the processor object.
	Raw map[string]interface{}
}

type CreateAccountRequest struct {
	UserID         string
	Email          string
	Name           string
	Country        string
	IdempotencyKey string
}

type CreateAccountLinkRequest struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

type AccountLink struct {
	URL       string
	ExpiresAt time.Time
}

type Customer struct {
	ID    string
	Email string
}

type CreateCustomerRequest struct {
	UserID         string
	Email          string
	IdempotencyKey string
}

type CreateSubscriptionRequest struct {
	CustomerID string
	PriceID    string
	UserID     string
	PlanName   string
}

type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CancelAtPeriodEnd  bool
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAt           *time.Time
	CanceledAt         *time.Time
	// ClientSecret and PaymentIntentID belong to the latest invoice's payment intent.
	ClientSecret    string
	PaymentIntentID string
	Metadata        map[string]string
	Raw             map[string]interface{}
}

type PortalSession struct {
	ID  string
	URL string
}

type CreatePaymentIntentRequest struct {
	Amount      int64
	Currency    string
	Description string
	// DestinationAccountID and ApplicationFeeAmount are set for marketplace payments.
	DestinationAccountID string
	ApplicationFeeAmount *int64
	Metadata             map[string]string
	IdempotencyKey       string
}

// PaymentIntentStatusSucceeded is the terminal success status.
const PaymentIntentStatusSucceeded = "succeeded"

type PaymentIntent struct {
	ID               string
	Status           string
	Amount           int64
	Currency         string
	ClientSecret     string
	CustomerID       string
	LastErrorMessage string
	Metadata         map[string]string
	Raw              map[string]interface{}
}

type Invoice struct {
	ID              string
	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string
	AmountPaid      int64
	Currency        string
	Description     string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

type Price struct {
	ID        string
	Active    bool
	Recurring bool
	Currency  string
	Amount    int64
	Interval  string
}

// Event is a verified webhook delivery with its data object decoded by type.
type Event struct {
	ID      string
	Type    string
	Created time.Time

	Subscription  *Subscription
	Invoice       *Invoice
	PaymentIntent *PaymentIntent
	Account       *Account
}

// ProviderError is a failure reported by the processor. Message is the
// processor's own text.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Event types the reconciler acts on.
const (
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaid            = "invoice.paid"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventAccountUpdated         = "account.updated"
)
