// Package cli assembles the kfctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/internal/cli"
)

// Root returns the kfctl root command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "kfctl",
		Short: "Plan, cost and deploy LLM inference on Kubernetes",
		Long: `kfctl installs inference runtime operators (NVIDIA Dynamo, KubeRay, KAITO)
and turns one deployment request into the matching custom resource, after
checking GPU fit against the cluster and estimating its cost.`,
		SilenceUsage: true,
	}
	cli.AddCommands(root)
	return root
}
