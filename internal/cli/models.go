package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubefoundry/kubefoundry/internal/catalog"
)

var (
	modelsEngine       string
	modelsOutputFormat string
)

var ModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the curated model catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var list []catalog.Model
		if modelsEngine != "" {
			list = app.Catalog.ForEngine(modelsEngine)
		} else {
			list = app.Catalog.List()
		}
		w := cmd.OutOrStdout()
		if done, err := printStructured(w, modelsOutputFormat, list); done {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, m := range list {
			gated := ""
			if m.Gated {
				gated = "yes"
			}
			rows = append(rows, []string{m.ID, m.Parameters, strconv.Itoa(m.MinGPUs), strings.Join(m.Engines, ","), gated})
		}
		printTable(w, []string{"MODEL", "PARAMS", "MIN GPUS", "ENGINES", "GATED"}, rows)
		return nil
	},
}

func init() {
	ModelsCmd.Flags().StringVar(&modelsEngine, "engine", "", "Only list models supported by this engine")
	ModelsCmd.Flags().StringVarP(&modelsOutputFormat, "output", "o", formatTable, "Output format (table, json, yaml)")
}
