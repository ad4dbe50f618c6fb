package config

import "strings"

type ServiceConfig struct {
	Name                string `mapstructure:"name"`
	Environment         string `mapstructure:"environment"`
	Version             string `mapstructure:"version"`
	ClientURL           string `mapstructure:"client_url"`
	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	// PlanCatalogPath points at a plans YAML file; empty uses the built-in catalog.
	PlanCatalogPath  string         `mapstructure:"plan_catalog_path"`
	DefaultCountry   string         `mapstructure:"default_country"`
	PortalReturnPath string         `mapstructure:"portal_return_path"`
	Connect          ConnectConfig  `mapstructure:"connect"`
	Supabase         SupabaseConfig `mapstructure:"supabase"`
}

// ConnectConfig holds the client paths a connected account is sent back to
// after onboarding.
type ConnectConfig struct {
	RefreshPath string `mapstructure:"refresh_path"`
	ReturnPath  string `mapstructure:"return_path"`
}

type SupabaseConfig struct {
	// JWTSecret enables bearer token verification when set.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ClientPath joins p onto the client URL.
func (c ServiceConfig) ClientPath(p string) string {
	return strings.TrimRight(c.ClientURL, "/") + "/" + strings.TrimLeft(p, "/")
}
