package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zerovacancy/payments/internal/domain/dto"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/internal/usecase"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	base
	subscriptionService *usecase.SubscriptionService
}

func NewSubscriptionHandler(logger *zap.Logger, m *metrics.PaymentMetrics, subscriptionService *usecase.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		base:                base{logger: logger, metrics: m},
		subscriptionService: subscriptionService,
	}
}

// CreateSubscription handles POST /create-subscription.
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	started := time.Now()

	var req dto.CreateSubscriptionRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCreateSubscription, started, nil, err)
	}
	if req.Email == "" {
		req.Email = callerEmail(c)
	}

	resp, err := h.subscriptionService.CreateSubscription(c.Request().Context(), req)
	return h.respond(c, OpCreateSubscription, started, resp, err)
}

// CancelSubscription handles POST /cancel-subscription.
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	started := time.Now()

	var req dto.SubscriptionActionRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCancelSubscription, started, nil, err)
	}

	resp, err := h.subscriptionService.CancelSubscription(c.Request().Context(), req)
	return h.respond(c, OpCancelSubscription, started, resp, err)
}

// CreatePaymentUpdateSession handles POST /create-payment-update-session.
func (h *SubscriptionHandler) CreatePaymentUpdateSession(c echo.Context) error {
	started := time.Now()

	var req dto.SubscriptionActionRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCreatePaymentUpdateSession, started, nil, err)
	}

	resp, err := h.subscriptionService.CreateBillingPortalSession(c.Request().Context(), req)
	return h.respond(c, OpCreatePaymentUpdateSession, started, resp, err)
}
