package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deploymentsProvider     string
	deploymentsNamespace    string
	deploymentsOutputFormat string
)

var DeploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List and remove deployments created by kfctl",
}

var deploymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := app.Planner().List(cmd.Context(), deploymentsProvider, deploymentsNamespace)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, deploymentsOutputFormat, list); done {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(w, "No deployments found.")
			return nil
		}
		rows := make([][]string, 0, len(list))
		for _, d := range list {
			rows = append(rows, []string{d.Namespace, d.Name, d.Provider, d.Kind, d.CreatedAt})
		}
		printTable(w, []string{"NAMESPACE", "NAME", "PROVIDER", "KIND", "CREATED"}, rows)
		return nil
	},
}

var deploymentsDeleteCmd = &cobra.Command{
	Use:   "delete <provider> <name>",
	Short: "Delete a deployment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace := deploymentsNamespace
		if namespace == "" {
			p, err := app.Registry.Get(args[0])
			if err != nil {
				return err
			}
			namespace = p.Info().DefaultNamespace
		}
		if err := app.Planner().Delete(cmd.Context(), args[0], namespace, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s deleted\n", check(true), namespace, args[1])
		return nil
	},
}

func init() {
	DeploymentsCmd.PersistentFlags().StringVarP(&deploymentsNamespace, "namespace", "n", "", "Namespace (all namespaces for list, provider default for delete)")
	deploymentsListCmd.Flags().StringVarP(&deploymentsProvider, "provider", "p", "", "Only list deployments of this provider")
	deploymentsListCmd.Flags().StringVarP(&deploymentsOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
	DeploymentsCmd.AddCommand(deploymentsListCmd, deploymentsDeleteCmd)
}
