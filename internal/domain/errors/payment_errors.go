// Package errors defines the failures the payment orchestrators report to
// callers. Each constructor returns a *pkgerrors.AppError whose code decides
// the HTTP status.
package errors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
)

var (
	// ErrSubscriptionNotOwned is the cause for subscription lookups that
	// do not match the calling user.
	ErrSubscriptionNotOwned = errors.New("subscription not found")

	// ErrConnectedAccountNotFound is the cause when a connect account id has no local row.
	ErrConnectedAccountNotFound = errors.New("connected account not found")

	// ErrProcessorNotConfigured is returned by every processor call when no API key is set.
	ErrProcessorNotConfigured = errors.New("payment processor is not configured")
)

func NewValidationError(format string, args ...interface{}) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrValidation, fmt.Sprintf(format, args...), nil)
}

func NewNotFoundOrForbiddenError(message string, cause error) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrNotFoundOrForbidden, message, cause)
}

func NewNotFoundError(message string, cause error) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrNotFound, message, cause)
}

// NewUpstreamError keeps cause's message as the client message.
func NewUpstreamError(cause error) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrUpstream, cause.Error(), cause)
}

func NewConfigurationError(message string) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrConfiguration, message, ErrProcessorNotConfigured)
}

func NewPaymentNotSucceededError(status string) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrPaymentNotSucceeded,
		fmt.Sprintf("payment has not succeeded (status: %s)", status), nil)
}

func NewInvalidPlanError(planName string) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrInvalidPlan, fmt.Sprintf("invalid plan: %q", planName), nil)
}

func NewWebhookRejectedError(message string, cause error) *pkgerrors.AppError {
	return pkgerrors.NewAppError(pkgerrors.ErrWebhookRejected, message, cause)
}

// Upstream passes AppErrors through and wraps anything else as an upstream failure.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return NewUpstreamError(err)
}

// KindOf returns the error code carried by err.
func KindOf(err error) string {
	return pkgerrors.CodeOf(err)
}
