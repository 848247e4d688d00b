package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubefoundry/kubefoundry/internal/api"
	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/internal/logging"
	"github.com/kubefoundry/kubefoundry/internal/pricing"
	"github.com/kubefoundry/kubefoundry/internal/telemetry"
)

var serveListenAddress string

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kubefoundry HTTP API",
	Long: `Serves the planning, cost, installation and deployment API under /v0 and
Prometheus metrics under /metrics. The server starts without a cluster
connection; cluster-backed endpoints then answer 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveListenAddress, "listen", "", "Listen address (overrides KUBEFOUNDRY_LISTEN_ADDRESS)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := app.Config
	if serveListenAddress != "" {
		cfg.ListenAddress = serveListenAddress
	}
	logger := logging.NewLogger("kubefoundry")
	defer func() { _ = logger.Sync() }()
	app.Logger = logger

	tel, err := telemetry.Setup()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()
	app.Metrics = tel.Metrics

	if cfg.PricingFile != "" {
		w := &pricing.Watcher{Path: cfg.PricingFile, Store: app.Pricing, Logger: logger.Named("pricing")}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("pricing watcher stopped", zap.Error(err))
			}
		}()
	}

	svc := &v0.Services{
		Registry:  app.Registry,
		Installer: app.Installer(),
		Planner:   app.Planner(),
		Catalog:   app.Catalog,
	}
	if c, err := app.Cluster(); err != nil {
		logger.Warn("no cluster connection; cluster endpoints are unavailable", zap.Error(err))
	} else {
		svc.Capacity = c
	}

	srv := api.NewServer(svc, api.Options{
		ListenAddress: cfg.ListenAddress,
		CORSOrigins:   cfg.CORSOrigins,
		Metrics:       tel.Handler(),
		Logger:        logger.Named("api"),
	})
	return srv.Run(ctx)
}
