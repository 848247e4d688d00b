package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/pkg/models"
)

var (
	costFile              string
	costAggregatedFile    string
	costDisaggregatedFile string
	costOutputFormat      string
)

var CostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate what a deployment costs to run",
}

var costEstimateCmd = &cobra.Command{
	Use:   "estimate -f <request>",
	Short: "Price the topology of a deployment request",
	Long: `Prices a deployment request's GPU topology. Absolute rates come from the
pricing table for the request's cloudProvider and gpuType, or from
customHourlyRate; without either only relative metrics are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readRequest(costFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		est, err := app.Planner().Estimate(raw)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, costOutputFormat, est); done {
			return err
		}
		printEstimate(w, est)
		return nil
	},
}

var costCompareCmd = &cobra.Command{
	Use:   "compare --aggregated <request> --disaggregated <request>",
	Short: "Compare an aggregated and a disaggregated topology",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		agg, err := readRequest(costAggregatedFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		dis, err := readRequest(costDisaggregatedFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		cmp, err := app.Planner().Compare(agg, dis)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, costOutputFormat, cmp); done {
			return err
		}
		fmt.Fprintln(w, titleStyle.Render("Aggregated"))
		printEstimate(w, &cmp.Aggregated)
		fmt.Fprintln(w, titleStyle.Render("Disaggregated"))
		printEstimate(w, &cmp.Disaggregated)
		fmt.Fprintln(w)
		fmt.Fprintln(w, wrap(cmp.SavingsDescription))
		return nil
	},
}

func init() {
	CostCmd.PersistentFlags().StringVarP(&costOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
	costEstimateCmd.Flags().StringVarP(&costFile, "file", "f", "", `Deployment request file, or "-" for stdin`)
	_ = costEstimateCmd.MarkFlagRequired("file")
	costCompareCmd.Flags().StringVar(&costAggregatedFile, "aggregated", "", "Aggregated deployment request file")
	costCompareCmd.Flags().StringVar(&costDisaggregatedFile, "disaggregated", "", "Disaggregated deployment request file")
	_ = costCompareCmd.MarkFlagRequired("aggregated")
	_ = costCompareCmd.MarkFlagRequired("disaggregated")
	CostCmd.AddCommand(costEstimateCmd, costCompareCmd)
}

func printEstimate(w io.Writer, est *models.CostEstimate) {
	fmt.Fprintf(w, "  GPUs:        %d (%.1f× a single replica)\n", est.Resources.TotalGPUs, est.GPUMultiplier)
	if est.HasActualCosts {
		fmt.Fprintf(w, "  Per GPU:     $%.2f/hour\n", *est.PerGPUHourlyRate)
	}
	fmt.Fprintln(w, "  Summary:     "+wrap(est.Description))
	fmt.Fprintln(w, mutedStyle.Render("  Prices last updated "+est.PricingLastUpdated))
}
