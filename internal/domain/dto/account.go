package dto

// CreateConnectAccountRequest starts or resumes payout onboarding.
type CreateConnectAccountRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name"`
	Country string `json:"country" validate:"omitempty,len=2"`
}

// ConnectAccountResponse carries an onboarding link only while onboarding is incomplete.
type ConnectAccountResponse struct {
	AccountID        string `json:"accountId"`
	AccountLink      string `json:"accountLink,omitempty"`
	IsFullyOnboarded bool   `json:"isFullyOnboarded"`
}
