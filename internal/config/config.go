// Package config loads kubefoundry settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration. Every field maps to one environment
// variable; a .env file in the working directory is loaded first when present.
type Config struct {
	ListenAddress        string        `env:"KUBEFOUNDRY_LISTEN_ADDRESS" envDefault:":3001"`
	Kubeconfig           string        `env:"KUBECONFIG"`
	HelmBinary           string        `env:"KUBEFOUNDRY_HELM_BINARY" envDefault:"helm"`
	HelmTimeout          time.Duration `env:"KUBEFOUNDRY_HELM_TIMEOUT" envDefault:"10m"`
	ClusterTimeout       time.Duration `env:"KUBEFOUNDRY_CLUSTER_TIMEOUT" envDefault:"5s"`
	PricingFile          string        `env:"KUBEFOUNDRY_PRICING_FILE"`
	DefaultCloudProvider string        `env:"KUBEFOUNDRY_DEFAULT_CLOUD_PROVIDER" envDefault:"none"`
	CORSOrigins          []string      `env:"KUBEFOUNDRY_CORS_ORIGINS" envSeparator:","`
	LogLevel             string        `env:"KUBEFOUNDRY_LOG_LEVEL" envDefault:"info"`
	HFTokenSecret        string        `env:"KUBEFOUNDRY_HF_TOKEN_SECRET" envDefault:"hf-token-secret"`
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// NewConfig is Load for callers that treat a bad environment as fatal.
func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
