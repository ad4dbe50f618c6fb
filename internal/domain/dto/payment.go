package dto

// CreateConnectPaymentRequest is a marketplace payment routed to a connected account.
type CreateConnectPaymentRequest struct {
	UserID           string            `json:"userId" validate:"required"`
	ConnectAccountID string            `json:"connectAccountId" validate:"required"`
	Amount           int64             `json:"amount" validate:"required,gt=0"`
	Currency         string            `json:"currency" validate:"omitempty,len=3"`
	Description      string            `json:"description"`
	ServiceType      string            `json:"serviceType"`
	Metadata         map[string]string `json:"metadata"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

// CreatePaymentRequest is a one-off charge without a split.
type CreatePaymentRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3"`

	IdempotencyKey string `json:"-"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type VerifyPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	UserID          string `json:"userId" validate:"required"`
}

type PaymentIntentSummary struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyPaymentResponse.Subscription is null when the user has none.
type VerifyPaymentResponse struct {
	Success       bool                 `json:"success"`
	PaymentIntent PaymentIntentSummary `json:"paymentIntent"`
	Subscription  *SubscriptionSummary `json:"subscription"`
}
