package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var statusOutputFormat string

var StatusCmd = &cobra.Command{
	Use:   "status <provider>",
	Short: "Show whether a provider is installed",
	Long:  `Checks that the provider's CRD is established and that its operator pods are ready.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	StatusCmd.Flags().StringVarP(&statusOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
}

type statusInfo struct {
	Provider string `json:"provider"`
	models.InstallationStatus
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := app.Installer().Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	info := statusInfo{Provider: args[0], InstallationStatus: status}

	w := cmd.OutOrStdout()
	if done, err := printStructured(w, statusOutputFormat, info); done {
		return err
	}
	fmt.Fprintf(w, "Provider:   %s\n", info.Provider)
	fmt.Fprintf(w, "Installed:  %s\n", check(status.Installed))
	fmt.Fprintf(w, "CRD:        %s\n", check(status.CRDFound))
	fmt.Fprintf(w, "Operator:   %s\n", check(status.OperatorRunning))
	if status.Message != "" {
		fmt.Fprintf(w, "Message:    %s\n", status.Message)
	}
	return nil
}
