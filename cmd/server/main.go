package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	handlers "github.com/zerovacancy/payments/internal/adapter/handler/http"
	"github.com/zerovacancy/payments/internal/catalog"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/infrastructure/database"
	grpcServer "github.com/zerovacancy/payments/internal/infrastructure/grpc"
	httpServer "github.com/zerovacancy/payments/internal/infrastructure/http"
	"github.com/zerovacancy/payments/internal/infrastructure/provider"
	"github.com/zerovacancy/payments/internal/metrics"
	"github.com/zerovacancy/payments/internal/usecase"
	"github.com/zerovacancy/payments/pkg/logger"
	"github.com/zerovacancy/payments/pkg/messaging"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("env", cfg.Service.Environment),
		zap.String("version", cfg.Service.Version))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	plans, err := catalog.Load(cfg.Service.PlanCatalogPath)
	if err != nil {
		zapLogger.Fatal("Failed to load plan catalog", zap.Error(err))
	}

	factory := provider.NewFactory(&cfg.Service, zapLogger)
	processor := factory.Processor()
	if cfg.Service.StripeWebhookSecret == "" {
		zapLogger.Error("Stripe webhook secret not configured; every webhook delivery will be rejected")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics, err := metrics.NewPaymentMetrics(registry, cfg.Service.Name, cfg.Service.Environment)
	if err != nil {
		zapLogger.Fatal("Failed to register metrics", zap.Error(err))
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.Redis.Addr != "" {
		publisher, err = messaging.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	}
	defer publisher.Close()

	accountService := usecase.NewAccountService(repos.ConnectedAccount, processor, cfg.Service, zapLogger)
	paymentService := usecase.NewPaymentService(repos.ConnectedAccount, repos.Payment, repos.Subscription, processor, zapLogger)
	subscriptionService := usecase.NewSubscriptionService(repos.CustomerMapping, repos.Subscription, processor, plans, cfg.Service, zapLogger)
	webhookService := usecase.NewWebhookService(usecase.WebhookRepositories{
		Events:           repos.WebhookEvent,
		Subscriptions:    repos.Subscription,
		Payments:         repos.Payment,
		Accounts:         repos.ConnectedAccount,
		CustomerMappings: repos.CustomerMapping,
	}, factory.Verifier(), cfg.Service.StripeWebhookSecret, plans, publisher, cfg.Redis.Channel, paymentMetrics, zapLogger)

	// Initialize servers
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Account:      handlers.NewAccountHandler(zapLogger, paymentMetrics, accountService),
		Payment:      handlers.NewPaymentHandler(zapLogger, paymentMetrics, paymentService),
		Subscription: handlers.NewSubscriptionHandler(zapLogger, paymentMetrics, subscriptionService),
		Webhook:      handlers.NewWebhookHandler(zapLogger, webhookService),
	}, registry)

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv = grpcServer.NewServer(cfg, zapLogger)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(ctx); err != nil {
			zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
	}

	zapLogger.Info("Servers shut down successfully")
}
