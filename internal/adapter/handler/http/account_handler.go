package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zerovacancy/payments/internal/domain/dto"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/internal/usecase"
	"go.uber.org/zap"
)

type AccountHandler struct {
	base
	accountService *usecase.AccountService
}

func NewAccountHandler(logger *zap.Logger, m *metrics.PaymentMetrics, accountService *usecase.AccountService) *AccountHandler {
	return &AccountHandler{
		base:           base{logger: logger, metrics: m},
		accountService: accountService,
	}
}

// CreateConnectAccount handles POST /create-connect-account.
func (h *AccountHandler) CreateConnectAccount(c echo.Context) error {
	started := time.Now()

	var req dto.CreateConnectAccountRequest
	if err := h.bind(c, &req, func() string { return req.UserID }); err != nil {
		return h.respond(c, OpCreateConnectAccount, started, nil, err)
	}

	resp, err := h.accountService.CheckOrCreateAccount(c.Request().Context(), req)
	return h.respond(c, OpCreateConnectAccount, started, resp, err)
}
