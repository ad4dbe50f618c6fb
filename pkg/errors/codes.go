package errors

const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrConflict        = "CONFLICT"

	// Payment orchestration codes.
	ErrValidation          = "VALIDATION"
	ErrNotFoundOrForbidden = "NOT_FOUND_OR_FORBIDDEN"
	ErrUpstream            = "UPSTREAM"
	ErrConfiguration       = "CONFIGURATION"
	ErrPaymentNotSucceeded = "PAYMENT_NOT_SUCCEEDED"
	ErrInvalidPlan         = "INVALID_PLAN"
	ErrWebhookRejected     = "WEBHOOK_REJECTED"
)
