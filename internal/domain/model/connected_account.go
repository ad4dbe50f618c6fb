package model

import "time"

// ConnectedAccount is a user's payout destination at the processor. There is
// at most one per user and rows are never deleted.
type ConnectedAccount struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             string     `gorm:"column:user_id;uniqueIndex;not null;size:255" json:"user_id"`
	ProcessorAccountID string     `gorm:"column:processor_account_id;uniqueIndex;not null;size:100" json:"processor_account_id"`
	Email              string     `gorm:"size:255" json:"email"`
	Country            string     `gorm:"size:2;not null" json:"country"`
	Onboarded          bool       `gorm:"not null;default:false" json:"onboarded"`
	OnboardedAt        *time.Time `json:"onboarded_at,omitempty"`
	RawMetadata        JSONB      `gorm:"column:raw_metadata;type:jsonb" json:"raw_metadata,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ConnectedAccount) TableName() string {
	return "connected_accounts"
}
