package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var (
	planFile         string
	planOutputFormat string
	planManifestOnly bool
)

var PlanCmd = &cobra.Command{
	Use:   "plan -f <request>",
	Short: "Validate a deployment request and show its plan",
	Long: `Validates a deployment request (JSON or YAML) against the provider it names and
shows the derived GPU topology, the fit against current cluster capacity, the
estimated cost and the manifest that deploy would apply. Nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readRequest(planFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		plan, err := app.Planner().Plan(cmd.Context(), raw)
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), plan)
	},
}

var DeployCmd = &cobra.Command{
	Use:   "deploy -f <request>",
	Short: "Plan a deployment request and apply it to the cluster",
	Long: `Plans the request like "plan" and applies the manifest with server-side apply.
The fit check is advisory: a plan that does not fit is still applied, and its
warnings are printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readRequest(planFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		plan, err := app.Planner().Deploy(cmd.Context(), raw)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		printWarnings(w, plan.Warnings)
		fmt.Fprintf(w, "%s %s/%s applied (%s, %d GPUs)\n", check(true),
			plan.Request.Namespace, plan.Request.Name, plan.Provider, plan.Topology.TotalGPUs)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{PlanCmd, DeployCmd} {
		cmd.Flags().StringVarP(&planFile, "file", "f", "", `Deployment request file, or "-" for stdin`)
		_ = cmd.MarkFlagRequired("file")
	}
	PlanCmd.Flags().StringVarP(&planOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
	PlanCmd.Flags().BoolVar(&planManifestOnly, "manifest-only", false, "Print only the manifest as YAML")
}

func printPlan(w io.Writer, plan *models.DeploymentPlan) error {
	if planManifestOnly {
		return printYAML(w, plan.Manifest)
	}
	if done, err := printStructured(w, planOutputFormat, plan); done {
		return err
	}

	t := plan.Topology
	fmt.Fprintln(w, titleStyle.Render("Deployment ")+plan.Request.Namespace+"/"+plan.Request.Name+mutedStyle.Render(" via "+plan.Provider))
	fmt.Fprintf(w, "Model:     %s (%s)\n", plan.Request.ModelID, plan.Request.Engine)
	if t.Mode == models.ModeDisaggregated {
		fmt.Fprintf(w, "Topology:  disaggregated, %d prefill × %d GPU, %d decode × %d GPU\n",
			t.PrefillInstances, t.PrefillGPUsPerInstance, t.DecodeInstances, t.DecodeGPUsPerInstance)
	} else {
		fmt.Fprintf(w, "Topology:  aggregated, %d × %d GPU\n", t.WorkerInstances, t.GPUsPerWorker)
	}
	fmt.Fprintf(w, "GPUs:      %d total, %d instances\n", t.TotalGPUs, t.TotalInstances)

	fit := "unknown"
	if plan.Fit.CapacityKnown {
		fit = check(plan.Fit.Fits)
	}
	fmt.Fprintf(w, "Fits:      %s (requires %d GPUs, %d on one node)\n", fit, plan.Fit.RequiredGPUs, plan.Fit.MaxGPUsPerPod)
	if plan.Cost != nil {
		fmt.Fprintln(w, "Cost:      "+strings.TrimSpace(indent(wrap(plan.Cost.Description), "           ")))
	}
	printWarnings(w, plan.Warnings)
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Manifest"))
	return printYAML(w, plan.Manifest)
}
