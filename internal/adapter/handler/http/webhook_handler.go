package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zerovacancy/payments/internal/domain/dto"
	domainErrors "github.com/zerovacancy/payments/internal/domain/errors"
	"github.com/zerovacancy/payments/internal/usecase"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
	"go.uber.org/zap"
)

// WebhookBodyLimit bounds the signed payload; larger deliveries get 413.
const WebhookBodyLimit = "1M"

type WebhookHandler struct {
	logger         *zap.Logger
	webhookService *usecase.WebhookService
}

func NewWebhookHandler(logger *zap.Logger, webhookService *usecase.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		logger:         logger,
		webhookService: webhookService,
	}
}

// HandleWebhook handles POST /stripe-webhook. The body must be read raw;
// re-encoding it would break the signature. The route is mounted behind
// middleware.BodyLimit, whose reader fails with a 413 HTTPError on overflow.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) {
			err = domainErrors.NewWebhookRejectedError("Error reading request body", err)
		}
		return h.fail(c, err)
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.webhookService.HandleEvent(c.Request().Context(), body, sig); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

func (h *WebhookHandler) fail(c echo.Context, err error) error {
	pkgerrors.LogError(h.logger, err, "Webhook delivery rejected")
	return writeError(c, err)
}
