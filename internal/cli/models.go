package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shivanshkc/koda/internal/logger"
	"github.com/shivanshkc/koda/pkg/models"
)

// modelsCmd represents the `models` command, which lists the model table.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models that --model prefixes are matched against.",
	Long: `Lists the model table in matching order. A --model prefix selects the first
model it matches; the selected model is marked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, err := models.Resolve(settings.Models, settings.Model)
		if err != nil {
			logger.Warn("no model is selected", "err", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Model", "Selected"})

		for i, model := range settings.Models {
			mark := ""
			if model == selected {
				mark = "*"
			}
			t.AppendRow(table.Row{i + 1, model, mark})
		}

		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
