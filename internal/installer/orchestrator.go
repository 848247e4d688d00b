// Package installer drives Helm through the repo, chart and verification steps
// that install, upgrade or remove a provider's operator stack.
package installer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// StatusChecker reports whether a provider's CRD and operator are present.
type StatusChecker interface {
	InstallationStatus(ctx context.Context, p providers.Provider) (models.InstallationStatus, error)
}

// StepRecorder observes every step result. Optional.
type StepRecorder interface {
	InstallStep(ctx context.Context, provider, operation string, success bool)
}

// Orchestrator runs installation workflows. Each call is a fresh run with no
// persisted state; callers serialise runs for the same provider.
type Orchestrator struct {
	Registry *providers.Registry
	Runner   helm.Runner
	Status   StatusChecker
	Recorder StepRecorder
	Logger   *zap.Logger
}

// Install installs a provider's charts unless it is already installed. The
// first failing step halts the run; completed steps are not rolled back.
func (o *Orchestrator) Install(ctx context.Context, providerID string, onLine helm.LineFunc) (*models.InstallationOutcome, error) {
	return o.provision(ctx, providerID, models.OperationInstall, onLine)
}

// Upgrade runs "upgrade --install" for every chart without the
// already-installed short-circuit.
func (o *Orchestrator) Upgrade(ctx context.Context, providerID string, onLine helm.LineFunc) (*models.InstallationOutcome, error) {
	return o.provision(ctx, providerID, models.OperationUpgrade, onLine)
}

// Uninstall removes charts in reverse install order. Every chart is attempted
// even when an earlier removal fails.
func (o *Orchestrator) Uninstall(ctx context.Context, providerID string, onLine helm.LineFunc) (*models.InstallationOutcome, error) {
	p, err := o.Registry.Get(providerID)
	if err != nil {
		return nil, err
	}
	if err := o.Runner.Available(ctx); err != nil {
		return nil, err
	}

	out := newOutcome(providerID, models.OperationUninstall)
	for _, chart := range providers.UninstallOrder(p.HelmCharts()) {
		res := o.step(ctx, out, providers.UninstallArgs(chart), onLine)
		if !res.Success && out.Error == "" {
			out.Error = res.Stderr
		}
	}
	out.Success = out.Error == "" && allSucceeded(out.Results)

	o.verify(ctx, p, out, func(s models.InstallationStatus) bool {
		return !s.CRDFound && !s.OperatorRunning
	})
	return out, nil
}

func (o *Orchestrator) provision(ctx context.Context, providerID, operation string, onLine helm.LineFunc) (*models.InstallationOutcome, error) {
	p, err := o.Registry.Get(providerID)
	if err != nil {
		return nil, err
	}
	log := o.logger().With(zap.String("provider", providerID), zap.String("operation", operation))

	out := newOutcome(providerID, operation)

	if operation == models.OperationInstall {
		status, err := o.Status.InstallationStatus(ctx, p)
		switch {
		case err != nil:
			log.Warn("pre-install status check failed; proceeding", zap.Error(err))
		case status.Installed:
			log.Info("provider already installed; skipping")
			out.AlreadyInstalled = true
			out.Success = true
			out.Status = status
			return out, nil
		}
	}

	// An installed provider needs no helm at all, so the binary is only
	// checked once there is work for it.
	if err := o.Runner.Available(ctx); err != nil {
		return nil, err
	}

	var steps [][]string
	for _, repo := range p.HelmRepos() {
		steps = append(steps, providers.RepoAddArgs(repo))
	}
	if len(p.HelmRepos()) > 0 {
		steps = append(steps, providers.RepoUpdateArgs())
	}
	for _, chart := range p.HelmCharts() {
		steps = append(steps, providers.InstallArgs(chart, operation == models.OperationUpgrade))
	}

	out.Success = true
	for _, args := range steps {
		res := o.step(ctx, out, args, onLine)
		if !res.Success {
			out.Success = false
			out.Error = res.Stderr
			log.Warn("step failed; halting", zap.String("step", res.Step))
			break
		}
	}

	o.verify(ctx, p, out, func(s models.InstallationStatus) bool { return s.Installed })
	return out, nil
}

func (o *Orchestrator) step(ctx context.Context, out *models.InstallationOutcome, args []string, onLine helm.LineFunc) models.StepResult {
	sr := models.StepResult{Step: providers.CommandLine(args)}
	res, err := o.Runner.Run(ctx, args, onLine)
	switch {
	case err != nil:
		sr.Stderr = err.Error()
		if res != nil {
			sr.Stdout = res.Stdout
			if res.Stderr != "" {
				sr.Stderr = res.Stderr + "\n" + err.Error()
			}
		}
	default:
		sr.Success = res.Success()
		sr.Stdout = res.Stdout
		sr.Stderr = res.Stderr
		if !sr.Success && sr.Stderr == "" {
			sr.Stderr = fmt.Sprintf("%s exited with code %d", sr.Step, res.ExitCode)
		}
	}
	out.Results = append(out.Results, sr)
	if o.Recorder != nil {
		o.Recorder.InstallStep(ctx, out.ProviderID, out.Operation, sr.Success)
	}
	return sr
}

// verify re-reads the cluster after a run. The CLI can succeed while the
// operator is still starting, so a disagreement is a warning only.
func (o *Orchestrator) verify(ctx context.Context, p providers.Provider, out *models.InstallationOutcome, expected func(models.InstallationStatus) bool) {
	status, err := o.Status.InstallationStatus(ctx, p)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("could not verify installation status: %v", err))
		return
	}
	out.Status = status
	if out.Success && !expected(status) {
		msg := fmt.Sprintf("helm %s succeeded but the cluster reports crdFound=%t operatorRunning=%t",
			out.Operation, status.CRDFound, status.OperatorRunning)
		if status.Message != "" {
			msg += ": " + status.Message
		}
		out.Warnings = append(out.Warnings, msg)
	}
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func newOutcome(providerID, operation string) *models.InstallationOutcome {
	return &models.InstallationOutcome{
		ProviderID: providerID,
		Operation:  operation,
		Results:    []models.StepResult{},
	}
}

func allSucceeded(results []models.StepResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
