package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
)

// RequestValidator adapts validator/v10 to echo.Validator. Failures name the
// JSON field so messages read like "userId is required".
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domainErrors.NewValidationError("Invalid request body")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return domainErrors.NewValidationError("%s is required", fe.Field())
	case "gt":
		return domainErrors.NewValidationError("%s must be greater than %s", fe.Field(), fe.Param())
	case "email":
		return domainErrors.NewValidationError("%s must be a valid email address", fe.Field())
	case "len":
		return domainErrors.NewValidationError("%s must be %s characters", fe.Field(), fe.Param())
	default:
		return domainErrors.NewValidationError("%s is invalid", fe.Field())
	}
}
