// Package config loads service configuration from YAML files with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config gives read access to loaded settings.
type Config interface {
	// Unmarshal decodes all settings into out using mapstructure tags.
	Unmarshal(out interface{}) error
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) Unmarshal(out interface{}) error { return c.v.Unmarshal(out) }

const configDir = "configs"

// Load reads <serviceName>.yaml. CONFIG_PATH names the directory to search;
// otherwise configs/<APP_ENV> and then configs are tried. Every key can be
// overridden by an environment variable such as PAYMENT_SERVICE_STRIPE_SECRET_KEY.
// Defaults make keys visible to the environment even when the file omits them.
func Load(serviceName string, defaults map[string]interface{}) (Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetConfigName(serviceName)
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "dev"
		}
		v.AddConfigPath(filepath.Join(configDir, env))
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Environment and defaults alone are a valid configuration.
	}

	return &viperConfig{v: v}, nil
}
