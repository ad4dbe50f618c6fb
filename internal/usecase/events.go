package usecase

import "time"

// BillingEvent is published after the reconciler changes local billing state.
type BillingEvent struct {
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	UserID          string    `json:"user_id,omitempty"`
	SubscriptionID  string    `json:"subscription_id,omitempty"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	AccountID       string    `json:"account_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	Amount          int64     `json:"amount,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
