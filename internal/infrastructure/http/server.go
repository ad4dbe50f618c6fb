package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	handlers "github.com/zerovacancy/payments/internal/adapter/handler/http"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/middleware/auth"
	"github.com/zerovacancy/payments/pkg/logger"
	"go.uber.org/zap"
)

// Handlers groups the endpoint handlers mounted by the server.
type Handlers struct {
	Account      *handlers.AccountHandler
	Payment      *handlers.PaymentHandler
	Subscription *handlers.SubscriptionHandler
	Webhook      *handlers.WebhookHandler
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

// NewServer builds the echo instance with every route mounted. gatherer may
// be nil, in which case no metrics endpoint is exposed.
func NewServer(cfg *config.Config, logger *zap.Logger, h Handlers, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()

	s := &Server{
		config: cfg,
		logger: logger,
		echo:   e,
	}
	s.setupMiddleware()
	s.setupRoutes(h, gatherer)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	// Preflight must be answered before routing; there are no OPTIONS routes.
	s.echo.Pre(corsMiddleware(s.config.Server.HTTP.AllowOrigins))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(logger.NewEchoRequestLogger(s.logger))
	logger.WithEchoLogger(s.echo, s.logger)
}

func (s *Server) setupRoutes(h Handlers, gatherer prometheus.Gatherer) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	if gatherer != nil && s.config.Metrics.Enabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.echo.GET(path, echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	base := "/" + strings.Trim(s.config.Server.HTTP.BasePath, "/")
	if base == "/" {
		base = ""
	}
	api := s.echo.Group(base)

	// The webhook authenticates by signature, not bearer token.
	api.POST("/"+handlers.OpStripeWebhook, h.Webhook.HandleWebhook, middleware.BodyLimit(handlers.WebhookBodyLimit))

	protected := api.Group("", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.Service.Supabase.JWTSecret,
		Logger: s.logger,
	}))
	protected.POST("/"+handlers.OpCreateConnectAccount, h.Account.CreateConnectAccount)
	protected.POST("/"+handlers.OpCreateConnectPayment, h.Payment.CreateConnectPayment)
	protected.POST("/"+handlers.OpCreatePayment, h.Payment.CreatePayment)
	protected.POST("/"+handlers.OpVerifyPayment, h.Payment.VerifyPayment)
	protected.POST("/"+handlers.OpCreateSubscription, h.Subscription.CreateSubscription)
	protected.POST("/"+handlers.OpCancelSubscription, h.Subscription.CancelSubscription)
	protected.POST("/"+handlers.OpCreatePaymentUpdateSession, h.Subscription.CreatePaymentUpdateSession)
}
