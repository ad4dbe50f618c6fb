package errors

import "net/http"

// Handled failures are reported as 400 so the client never learns whether a
// resource exists; only configuration and internal faults are 5xx.
var codeMapping = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusBadRequest,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrConflict:        http.StatusConflict,

	ErrValidation:          http.StatusBadRequest,
	ErrNotFoundOrForbidden: http.StatusBadRequest,
	ErrUpstream:            http.StatusBadRequest,
	ErrConfiguration:       http.StatusInternalServerError,
	ErrPaymentNotSucceeded: http.StatusBadRequest,
	ErrInvalidPlan:         http.StatusBadRequest,
	ErrWebhookRejected:     http.StatusBadRequest,
}

// GetCodeMapping returns the HTTP status for code.
func GetCodeMapping(code string) int {
	if status, ok := codeMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
