package usecase

import (
	"strings"

	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
)

// requireFields fails with a validation error naming the first empty field.
// Pairs are field name followed by value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return domainErrors.NewValidationError("%s is required", pairs[i])
		}
	}
	return nil
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return defaultCurrency
	}
	return currency
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
