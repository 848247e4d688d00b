package providers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// HelmBinary is the command name shown in human-readable installation steps.
const HelmBinary = "helm"

// RepoAddArgs returns the arguments that register a chart repository.
func RepoAddArgs(repo models.HelmRepo) []string {
	return []string{"repo", "add", repo.Name, repo.URL, "--force-update"}
}

// RepoUpdateArgs returns the arguments that refresh all chart repositories.
func RepoUpdateArgs() []string {
	return []string{"repo", "update"}
}

// InstallArgs returns the arguments that install a chart, or upgrade it in
// place (installing when absent) when upgrade is true.
func InstallArgs(chart models.HelmChart, upgrade bool) []string {
	var args []string
	if upgrade {
		args = []string{"upgrade", "--install", chart.Name, chart.Chart}
	} else {
		args = []string{"install", chart.Name, chart.Chart}
	}
	args = append(args, "--namespace", chart.Namespace)
	if chart.CreateNamespace {
		args = append(args, "--create-namespace")
	}
	if chart.Version != "" {
		args = append(args, "--version", chart.Version)
	}
	return args
}

// UninstallArgs returns the arguments that remove a chart release.
func UninstallArgs(chart models.HelmChart) []string {
	return []string{"uninstall", chart.Name, "--namespace", chart.Namespace}
}

// CommandLine renders helm arguments as a shell command.
func CommandLine(args []string) string {
	return HelmBinary + " " + strings.Join(args, " ")
}

// StepsFor derives the human-readable installation steps from the repos and
// charts a provider declares, so they always match what the installer runs.
func StepsFor(repos []models.HelmRepo, charts []models.HelmChart) []models.InstallationStep {
	steps := make([]models.InstallationStep, 0, len(repos)+len(charts)+1)
	for _, repo := range repos {
		steps = append(steps, models.InstallationStep{
			Title:       fmt.Sprintf("Add the %s Helm repository", repo.Name),
			Command:     CommandLine(RepoAddArgs(repo)),
			Description: fmt.Sprintf("Registers %s as a chart source.", repo.URL),
		})
	}
	if len(repos) > 0 {
		steps = append(steps, models.InstallationStep{
			Title:       "Update Helm repositories",
			Command:     CommandLine(RepoUpdateArgs()),
			Description: "Fetches the latest chart indexes.",
		})
	}
	for _, chart := range charts {
		desc := fmt.Sprintf("Installs %s into the %s namespace.", chart.Chart, chart.Namespace)
		if chart.Version != "" {
			desc = fmt.Sprintf("Installs %s %s into the %s namespace.", chart.Chart, chart.Version, chart.Namespace)
		}
		steps = append(steps, models.InstallationStep{
			Title:       fmt.Sprintf("Install %s", chart.Name),
			Command:     CommandLine(InstallArgs(chart, false)),
			Description: desc,
		})
	}
	return steps
}

// UninstallOrder returns charts in reverse install order.
func UninstallOrder(charts []models.HelmChart) []models.HelmChart {
	out := slices.Clone(charts)
	slices.Reverse(out)
	return out
}
