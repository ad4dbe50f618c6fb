package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zerovacancy/payments/internal/domain/dto"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/internal/middleware/auth"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
	"go.uber.org/zap"
)

// Operation names double as route paths and metric labels.
const (
	OpCreateConnectAccount       = "create-connect-account"
	OpCreateConnectPayment       = "create-connect-payment"
	OpCreatePayment              = "create-payment"
	OpCreateSubscription         = "create-subscription"
	OpCreatePaymentUpdateSession = "create-payment-update-session"
	OpCancelSubscription         = "cancel-subscription"
	OpVerifyPayment              = "verify-payment"
	OpStripeWebhook              = "stripe-webhook"
)

const idempotencyKeyHeader = "Idempotency-Key"

// base carries what every handler needs to bind requests and render errors.
type base struct {
	logger  *zap.Logger
	metrics *metrics.PaymentMetrics
}

// bind decodes and validates the JSON body, then checks that userID names
// the authenticated caller.
func (b base) bind(c echo.Context, req interface{}, userID func() string) error {
	if err := c.Bind(req); err != nil {
		return domainErrors.NewValidationError("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if userID != nil {
		return auth.EnsureUser(c, userID())
	}
	return nil
}

// respond renders the result of one orchestrator call and records it.
func (b base) respond(c echo.Context, operation string, started time.Time, body interface{}, err error) error {
	b.metrics.ObserveRequest(operation, started, err)
	if err != nil {
		pkgerrors.LogError(b.logger, err, "Request failed",
			zap.String("operation", operation),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, body)
}

// writeError renders err as {"error": message} with the status its code maps to.
func writeError(c echo.Context, err error) error {
	httpErr := pkgerrors.ToHTTPError(err)
	return c.JSON(httpErr.Code, dto.ErrorResponse{Error: fmt.Sprint(httpErr.Message)})
}

// callerEmail returns the authenticated caller's email, if any.
func callerEmail(c echo.Context) string {
	if user, ok := auth.GetUserFromContext(c); ok {
		return user.Email
	}
	return ""
}
