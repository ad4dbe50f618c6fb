package model

import (
	"time"
)

// PaymentStatus values beyond the processor's own intent statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment records a payment intent or a paid subscription invoice. A row is
// immutable once its status is completed.
type Payment struct {
	ID                        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                    string     `gorm:"column:user_id;not null;size:255;index" json:"user_id"`
	PhotographerID            *string    `gorm:"column:photographer_id;size:255;index" json:"photographer_id,omitempty"`
	ProcessorPaymentIntentID  *string    `gorm:"column:processor_payment_intent_id;uniqueIndex;size:100" json:"processor_payment_intent_id,omitempty"`
	ProcessorConnectAccountID *string    `gorm:"column:processor_connect_account_id;size:100" json:"processor_connect_account_id,omitempty"`
	ProcessorInvoiceID        *string    `gorm:"column:processor_invoice_id;uniqueIndex;size:100" json:"processor_invoice_id,omitempty"`
	ProcessorSubscriptionID   *string    `gorm:"column:processor_subscription_id;size:100;index" json:"processor_subscription_id,omitempty"`
	Amount                    int64      `gorm:"not null" json:"amount"`
	PlatformFee               *int64     `json:"platform_fee,omitempty"`
	Currency                  string     `gorm:"size:3;not null" json:"currency"`
	Status                    string     `gorm:"size:50;not null;index" json:"status"`
	Description               string     `gorm:"size:500" json:"description"`
	ServiceType               string     `gorm:"column:service_type;size:100" json:"service_type"`
	FailureMessage            *string    `json:"failure_message,omitempty"`
	PaidAt                    *time.Time `json:"paid_at,omitempty"`
	RawMetadata               JSONB      `gorm:"column:raw_metadata;type:jsonb" json:"raw_metadata,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
