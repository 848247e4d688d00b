package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Validate performs runtime validations on the loaded configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.ListenAddress == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if cfg.HelmTimeout <= 0 {
		return fmt.Errorf("helm timeout must be positive (got %s)", cfg.HelmTimeout)
	}
	if cfg.ClusterTimeout <= 0 {
		return fmt.Errorf("cluster timeout must be positive (got %s)", cfg.ClusterTimeout)
	}
	switch cfg.DefaultCloudProvider {
	case models.CloudNone, models.CloudAWS, models.CloudAzure, models.CloudGCP, models.CloudOnPrem:
	default:
		return fmt.Errorf("default cloud provider %q is not one of aws, azure, gcp, on-prem, none", cfg.DefaultCloudProvider)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return nil
}
