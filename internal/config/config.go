package config

import (
	"fmt"

	pkgconfig "github.com/zerovacancy/payments/pkg/config"
	"github.com/zerovacancy/payments/pkg/logger"
)

const serviceName = "payment"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// RedisConfig enables billing event publication when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig loads configs/payment.yaml (see pkg/config.Load for lookup
// rules) and applies PAYMENT_* environment overrides.
func LoadConfig() (*Config, error) {
	loaded, err := pkgconfig.Load(serviceName, defaults())
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":                  serviceName,
		"service.environment":           "development",
		"service.version":               "dev",
		"service.client_url":            "http://localhost:3000",
		"service.stripe_secret_key":     "",
		"service.stripe_webhook_secret": "",
		"service.plan_catalog_path":     "",
		"service.default_country":       "US",
		"service.connect.refresh_path":  "/connect/refresh",
		"service.connect.return_path":   "/connect/complete",
		"service.portal_return_path":    "/account/billing",
		"service.supabase.jwt_secret":   "",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.name":               "zerovacancy",
		"database.user":               "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     20,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "30m",
		"database.conn_max_idle_time": "5m",
		"database.log_level":          "warn",

		"server.http.host":          "0.0.0.0",
		"server.http.port":          8080,
		"server.http.base_path":     "/api",
		"server.http.allow_origins": []string{"*"},
		"server.grpc.enabled":       true,
		"server.grpc.host":          "0.0.0.0",
		"server.grpc.port":          9090,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.development": false,

		"redis.addr":     "",
		"redis.password": "",
		"redis.db":       0,
		"redis.channel":  "payments.billing-events",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}
}
