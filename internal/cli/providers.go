package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/internal/providers"
)

var providersOutputFormat string

var ProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect the supported inference runtimes",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		list := app.Registry.List()
		if done, err := printStructured(cmd.OutOrStdout(), providersOutputFormat, list); done {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, p := range list {
			rows = append(rows, []string{p.ID, p.Name, p.DefaultNamespace})
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "NAMESPACE"}, rows)
		return nil
	},
}

var providersShowCmd = &cobra.Command{
	Use:   "show <provider>",
	Short: "Show a provider's CRD, charts and installation steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.Registry.Get(args[0])
		if err != nil {
			return err
		}
		details := providers.Details(p)
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, providersOutputFormat, details); done {
			return err
		}

		fmt.Fprintln(w, titleStyle.Render(details.Name)+mutedStyle.Render(" ("+details.ID+")"))
		fmt.Fprintln(w, wrap(details.Description))
		fmt.Fprintln(w)
		fmt.Fprintf(w, "CRD:       %s %s\n", details.CRD.GroupVersion(), details.CRD.Kind)
		fmt.Fprintf(w, "Operator:  %s in %s\n", details.Operator.LabelSelector, details.Operator.Namespace)
		fmt.Fprintln(w)

		rows := make([][]string, 0, len(details.HelmCharts))
		for _, c := range details.HelmCharts {
			rows = append(rows, []string{c.Name, c.Chart, c.Version, c.Namespace})
		}
		printTable(w, []string{"RELEASE", "CHART", "VERSION", "NAMESPACE"}, rows)

		fmt.Fprintln(w, titleStyle.Render("Installation steps"))
		for i, step := range details.InstallationSteps {
			fmt.Fprintf(w, "%d. %s\n", i+1, step.Title)
			if step.Command != "" {
				fmt.Fprintln(w, indent(mutedStyle.Render("$ "+step.Command), "   "))
			}
			if step.Description != "" {
				fmt.Fprintln(w, indent(wrap(step.Description), "   "))
			}
		}
		return nil
	},
}

func init() {
	ProvidersCmd.PersistentFlags().StringVarP(&providersOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
	ProvidersCmd.AddCommand(providersListCmd, providersShowCmd)
}
