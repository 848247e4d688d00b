package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var capacityOutputFormat string

var CapacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Show cluster GPU capacity per node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := app.Cluster()
		if err != nil {
			return err
		}
		snapshot, err := c.Capacity(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, capacityOutputFormat, snapshot); done {
			return err
		}
		if len(snapshot.Nodes) == 0 {
			fmt.Fprintln(w, "No GPU nodes found.")
			return nil
		}
		rows := make([][]string, 0, len(snapshot.Nodes))
		for _, n := range snapshot.Nodes {
			rows = append(rows, []string{n.Name, n.GPUType,
				strconv.Itoa(n.TotalGPUs), strconv.Itoa(n.AllocatedGPUs), strconv.Itoa(n.AvailableGPUs)})
		}
		printTable(w, []string{"NODE", "GPU", "TOTAL", "ALLOCATED", "AVAILABLE"}, rows)
		fmt.Fprintf(w, "%d of %d GPUs available, at most %d on one node\n",
			snapshot.AvailableGPUs, snapshot.TotalGPUs, snapshot.MaxContiguousAvailable)
		return nil
	},
}

func init() {
	CapacityCmd.Flags().StringVarP(&capacityOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
}
