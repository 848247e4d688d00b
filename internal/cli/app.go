package cli

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kubefoundry/kubefoundry/internal/catalog"
	"github.com/kubefoundry/kubefoundry/internal/cluster"
	"github.com/kubefoundry/kubefoundry/internal/config"
	"github.com/kubefoundry/kubefoundry/internal/cost"
	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/internal/installer"
	"github.com/kubefoundry/kubefoundry/internal/logging"
	"github.com/kubefoundry/kubefoundry/internal/planner"
	"github.com/kubefoundry/kubefoundry/internal/pricing"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/internal/providers/builtin"
	"github.com/kubefoundry/kubefoundry/internal/telemetry"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// App holds the collaborators shared by every command. Fields left nil are
// filled from Config by Init, so tests can preset any of them.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *providers.Registry
	Catalog  *catalog.Catalog
	Pricing  *pricing.Store
	Runner   helm.Runner
	Metrics  *telemetry.Metrics
	// Connect opens the cluster connection on first use.
	Connect func() (*cluster.Client, error)

	initOnce   sync.Once
	initErr    error
	connOnce   sync.Once
	cluster    *cluster.Client
	clusterErr error
}

var app = &App{}

// SetApp replaces the App used by the commands.
func SetApp(a *App) {
	app = a
}

// Init loads configuration and builds the defaults. It is idempotent.
func (a *App) Init() error {
	a.initOnce.Do(func() { a.initErr = a.init() })
	return a.initErr
}

func (a *App) init() error {
	if a.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if err := config.Validate(a.Config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.SetLevel(a.Config.LogLevel); err != nil {
		return err
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Registry == nil {
		a.Registry = builtin.New(a.Config.HFTokenSecret)
	}
	if a.Catalog == nil {
		a.Catalog = catalog.Default()
	}
	if a.Pricing == nil {
		a.Pricing = pricing.NewStore(nil)
		if a.Config.PricingFile != "" {
			w := &pricing.Watcher{Path: a.Config.PricingFile, Store: a.Pricing}
			if err := w.Load(); err != nil {
				return err
			}
		}
	}
	if a.Runner == nil {
		a.Runner = helm.NewExecRunner(a.Config.HelmBinary, a.Config.Kubeconfig)
	}
	if a.Connect == nil {
		cfg := a.Config
		a.Connect = func() (*cluster.Client, error) {
			return cluster.New(cfg.Kubeconfig, cfg.ClusterTimeout)
		}
	}
	return nil
}

// Cluster returns the shared cluster client, connecting on first use.
func (a *App) Cluster() (*cluster.Client, error) {
	a.connOnce.Do(func() {
		a.cluster, a.clusterErr = a.Connect()
		if a.clusterErr != nil {
			a.Logger.Debug("no cluster connection", zap.Error(a.clusterErr))
		}
	})
	return a.cluster, a.clusterErr
}

// Installer builds the installation service.
func (a *App) Installer() *installer.Service {
	svc := installer.NewService(&installer.Orchestrator{
		Registry: a.Registry,
		Runner:   a.Runner,
		Status:   a.statusChecker(),
		Recorder: a.Metrics,
		Logger:   a.Logger,
	}, a.Logger)
	svc.Timeout = a.Config.HelmTimeout
	return svc
}

// Planner builds a planner. Without a cluster it plans with unknown capacity.
func (a *App) Planner() *planner.Planner {
	p := &planner.Planner{
		Registry:             a.Registry,
		Catalog:              a.Catalog,
		Cost:                 cost.NewEngine(a.Pricing),
		Recorder:             a.Metrics,
		Logger:               a.Logger,
		HFTokenSecret:        a.Config.HFTokenSecret,
		DefaultCloudProvider: a.Config.DefaultCloudProvider,
		CapacityTimeout:      a.Config.ClusterTimeout,
	}
	if c, err := a.Cluster(); err == nil {
		p.Cluster = c
	}
	return p
}

func (a *App) statusChecker() installer.StatusChecker {
	c, err := a.Cluster()
	if err != nil {
		return unavailableStatus{err: err}
	}
	return c
}

type unavailableStatus struct {
	err error
}

func (u unavailableStatus) InstallationStatus(context.Context, providers.Provider) (models.InstallationStatus, error) {
	return models.InstallationStatus{Message: u.err.Error()}, fmt.Errorf("%w: %v", planner.ErrClusterUnavailable, u.err)
}
