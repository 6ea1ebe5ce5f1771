package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var batchesCmd = &cobra.Command{
	Use:   "batches scenario.yaml",
	Short: "List the specifications worth batching after placing a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, scenario, err := loadPlant(args[0], nil)
		if err != nil {
			return err
		}

		if _, err := scenario.Place(sim); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		batches := sim.EligibleBatches()

		if len(batches) == 0 {
			fmt.Fprintln(w, color.New(color.FgYellow).Sprint("No eligible batches."))
			return nil
		}

		fmt.Fprintf(w, "%s (strategy %s)\n",
			color.New(color.Bold).Sprint("Eligible batches"), sim.Strategy())

		for _, spec := range batches {
			fmt.Fprintf(w, "  %s\n", color.New(color.FgGreen).Sprint(spec))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchesCmd)
}
