package dto

import "time"

type CreateSubscriptionRequest struct {
	PackageName string `json:"packageName" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
	// Email is copied onto a newly created processor customer.
	Email string `json:"email" validate:"omitempty,email"`
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

// SubscriptionActionRequest identifies a subscription owned by the caller.
type SubscriptionActionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
}

type CancelSubscriptionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PortalSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type SubscriptionSummary struct {
	SubscriptionID   string     `json:"subscriptionId"`
	PlanName         string     `json:"planName"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAt         *time.Time `json:"cancelAt,omitempty"`
}
