package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast scenario.yaml",
	Short: "Place the orders of a scenario and estimate when each completes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, scenario, err := loadPlant(args[0], nil)
		if err != nil {
			return err
		}

		placed, err := scenario.Place(sim)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		title := color.New(color.Bold)
		late := color.New(color.FgRed)

		fmt.Fprintf(w, "%s at %s\n", title.Sprint("Estimates"), sim.Now())

		for _, o := range placed {
			eta, err := sim.EstimatedCompletionTime(o.Number())
			if err != nil {
				fmt.Fprintf(w, "  #%-4d %-40s %s\n", o.Number(),
					o.Specification(), late.Sprint(err))

				continue
			}

			at := eta.String()
			if d, ok := o.Deadline(); ok && eta.After(d) {
				at = late.Sprintf("%s (deadline %s)", eta, d)
			}

			fmt.Fprintf(w, "  #%-4d %-40s %s\n", o.Number(), o.Specification(), at)
		}

		fmt.Fprintln(w, title.Sprint("Lines"))

		for _, name := range sim.LineNames() {
			d, err := sim.TimeToFinish(name)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "  %-12s drains current work in %s\n", name, d)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}
