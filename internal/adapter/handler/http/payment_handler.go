package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zerovacancy/payments/internal/domain/dto"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/internal/usecase"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	base
	paymentService *usecase.PaymentService
}

func NewPaymentHandler(logger *zap.Logger, m *metrics.PaymentMetrics, paymentService *usecase.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		base:           base{logger: logger, metrics: m},
		paymentService: paymentService,
	}
}

// CreateConnectPayment handles POST /create-connect-payment.
func (h *PaymentHandler) CreateConnectPayment(c echo.Context) error {
	started := time.Now()

	var req dto.CreateConnectPaymentRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCreateConnectPayment, started, nil, err)
	}
	req.IdempotencyKey = c.Request().Header.Get(idempotencyKeyHeader)

	resp, err := h.paymentService.CreateMarketplacePayment(c.Request().Context(), req)
	return h.respond(c, OpCreateConnectPayment, started, resp, err)
}

// CreatePayment handles POST /create-payment.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	started := time.Now()

	var req dto.CreatePaymentRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCreatePayment, started, nil, err)
	}
	req.IdempotencyKey = c.Request().Header.Get(idempotencyKeyHeader)

	resp, err := h.paymentService.CreateSimplePayment(c.Request().Context(), req)
	return h.respond(c, OpCreatePayment, started, resp, err)
}

// VerifyPayment handles POST /verify-payment.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	started := time.Now()

	var req dto.VerifyPaymentRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpVerifyPayment, started, nil, err)
	}

	resp, err := h.paymentService.VerifyPayment(c.Request().Context(), req)
	return h.respond(c, OpVerifyPayment, started, resp, err)
}
