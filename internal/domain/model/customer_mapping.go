package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerMapping links a user to their processor customer. The row is
// written as a reservation before the processor customer exists, so
// ProviderCustomerID is empty until the customer has been created.
type CustomerMapping struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             string    `gorm:"column:user_id;uniqueIndex;not null;size:255" json:"user_id"`
	ProviderCustomerID *string   `gorm:"column:provider_customer_id;uniqueIndex;size:100" json:"provider_customer_id,omitempty"`
	CustomerEmail      string    `gorm:"size:255" json:"customer_email"`
	ReservationToken   uuid.UUID `gorm:"column:reservation_token;not null" json:"reservation_token"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CustomerMapping) TableName() string {
	return "customer_mappings"
}

// HasCustomer reports whether the reservation has been completed.
func (m *CustomerMapping) HasCustomer() bool {
	return m.ProviderCustomerID != nil && *m.ProviderCustomerID != ""
}
