package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var installQuiet bool

var (
	InstallCmd   = newInstallationCmd(models.OperationInstall, "Install a provider's operator stack", "Adds the provider's Helm repositories and installs its charts in order. Nothing is run when the provider is already installed.")
	UpgradeCmd   = newInstallationCmd(models.OperationUpgrade, "Upgrade a provider's operator stack", "Runs helm upgrade --install for every chart of the provider.")
	UninstallCmd = newInstallationCmd(models.OperationUninstall, "Remove a provider's operator stack", "Uninstalls the provider's charts in reverse order, attempting every chart even when one fails.")
)

func newInstallationCmd(operation, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   operation + " <provider>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstallation(cmd, operation, args[0])
		},
	}
	cmd.Flags().BoolVarP(&installQuiet, "quiet", "q", false, "Do not stream helm output")
	return cmd
}

func runInstallation(cmd *cobra.Command, operation, providerID string) error {
	if _, err := app.Registry.Get(providerID); err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	var onLine helm.LineFunc
	if !installQuiet {
		onLine = func(line string, _ helm.Stream) {
			fmt.Fprintln(stderr, mutedStyle.Render("  "+line))
		}
	}

	out, _, err := app.Installer().Run(cmd.Context(), operation, providerID, onLine)
	if err != nil {
		return err
	}
	printOutcome(cmd.OutOrStdout(), out)
	if !out.Success {
		return fmt.Errorf("%s of %s failed", operation, providerID)
	}
	return nil
}

func printOutcome(w io.Writer, out *models.InstallationOutcome) {
	if out.AlreadyInstalled {
		fmt.Fprintf(w, "%s %s is already installed\n", check(true), out.ProviderID)
		return
	}
	for _, r := range out.Results {
		fmt.Fprintf(w, "%s %s\n", check(r.Success), r.Step)
		if !r.Success && r.Stderr != "" {
			fmt.Fprintln(w, indent(errStyle.Render(wrap(r.Stderr)), "  "))
		}
	}
	printWarnings(w, out.Warnings)
	if out.Success {
		fmt.Fprintf(w, "%s %s %s completed\n", okStyle.Render("done:"), out.ProviderID, out.Operation)
	}
}
