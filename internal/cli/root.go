package cli

import (
	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/internal/logging"
)

var verbose bool

// AddCommands registers every kfctl subcommand and the persistent setup hook
// on root.
func AddCommands(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if verbose && app.Logger == nil {
			app.Logger = logging.NewLogger("kfctl")
		}
		return app.Init()
	}
	root.AddCommand(
		ServeCmd,
		ProvidersCmd,
		InstallCmd,
		UpgradeCmd,
		UninstallCmd,
		StatusCmd,
		PlanCmd,
		DeployCmd,
		DeploymentsCmd,
		CostCmd,
		CapacityCmd,
		ModelsCmd,
		VersionCmd,
	)
}
