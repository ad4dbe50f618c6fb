package model

import (
	"database/sql/driver"
	"time"
)

// SubscriptionStatus is the locally mirrored subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceling  SubscriptionStatus = "canceling"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusIncomplete
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// SubscriptionStatusFromProcessor maps a processor status onto the local
// state machine. An active subscription scheduled to end is canceling.
func SubscriptionStatusFromProcessor(status string, cancelAtPeriodEnd bool) SubscriptionStatus {
	switch status {
	case "active", "trialing":
		if cancelAtPeriodEnd {
			return SubscriptionStatusCanceling
		}
		return SubscriptionStatusActive
	case "past_due", "unpaid", "paused":
		return SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return SubscriptionStatusCanceled
	default:
		return SubscriptionStatusIncomplete
	}
}

// Subscription mirrors a processor subscription. Rows are never deleted.
type Subscription struct {
	ID                      int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                  string             `gorm:"column:user_id;not null;size:255;index" json:"user_id"`
	ProcessorCustomerID     string             `gorm:"column:processor_customer_id;not null;size:100;index" json:"processor_customer_id"`
	ProcessorSubscriptionID string             `gorm:"column:processor_subscription_id;uniqueIndex;not null;size:100" json:"processor_subscription_id"`
	PlanID                  string             `gorm:"column:plan_id;size:100" json:"plan_id"`
	PlanName                string             `gorm:"column:plan_name;size:100" json:"plan_name"`
	Status                  SubscriptionStatus `gorm:"size:20;not null;index" json:"status"`
	CurrentPeriodStart      *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd        *time.Time         `json:"current_period_end,omitempty"`
	CancelAt                *time.Time         `json:"cancel_at,omitempty"`
	CanceledAt              *time.Time         `json:"canceled_at,omitempty"`
	// LastEventAt is the creation time of the newest processor event applied
	// to this row. Older events are skipped.
	LastEventAt *time.Time `gorm:"column:last_event_at" json:"last_event_at,omitempty"`
	RawMetadata JSONB      `gorm:"column:raw_metadata;type:jsonb" json:"raw_metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
