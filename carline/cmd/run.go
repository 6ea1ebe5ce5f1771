package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sarchlab/carline/monitoring"
	"github.com/sarchlab/carline/simulation"
)

var (
	statsDB     string
	monitorOn   bool
	monitorPort int
	openBrowser bool
	hold        bool
)

var runCmd = &cobra.Command{
	Use:   "run scenario.yaml",
	Short: "Place the orders of a scenario and work until they are built",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("stats-db") {
			statsDB = env.StatsDB
		}

		if !cmd.Flags().Changed("monitor-port") {
			monitorPort = env.MonitorPort
		}

		var (
			monitor *monitoring.Monitor
			bar     *monitoring.ProgressBar
		)

		if monitorOn {
			monitor = monitoring.NewMonitor().
				WithPortNumber(monitorPort).
				WithLogger(logger)
			bar = monitor.CreateProgressBar("orders", 0)
		}

		sim, scenario, err := loadPlant(args[0],
			func(b simulation.Builder) simulation.Builder {
				if statsDB != "" {
					b = b.WithRecording().WithOutputFileName(statsDB)
				}

				if bar != nil {
					b = b.WithSink(bar)
				}

				return b
			})
		if err != nil {
			return err
		}

		if monitor != nil {
			monitor.RegisterPlant(sim)

			if _, err := monitor.StartServer(openBrowser); err != nil {
				return err
			}
		}

		placed, err := scenario.Place(sim)
		if err != nil {
			return err
		}

		if bar != nil {
			bar.Lock()
			bar.Total = uint64(len(placed))
			bar.Unlock()

			bar.IncrementInProgress(uint64(len(placed)))
		}

		rounds, err := sim.Drain(scenario.WorkPace(), scenario.MaxRounds)
		if err != nil {
			return err
		}

		if err := sim.Terminate(); err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), sim, len(placed), rounds)

		if monitor != nil && hold {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop the monitor.")
			<-ctx.Done()
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&statsDB, "stats-db", "",
		"record completions into this SQLite database (without .sqlite3)")
	runCmd.Flags().BoolVar(&monitorOn, "monitor", false, "serve the monitor")
	runCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"port of the monitor, a free port when 0")
	runCmd.Flags().BoolVar(&openBrowser, "open-browser", false,
		"open the monitor in a browser")
	runCmd.Flags().BoolVar(&hold, "hold", false,
		"keep the monitor running after the run")
	rootCmd.AddCommand(runCmd)
}

func printReport(w io.Writer, sim *simulation.Simulation, placed, rounds int) {
	snap := sim.Snapshot()
	summary := sim.Summary()

	title := color.New(color.Bold)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	fmt.Fprintf(w, "%s %s\n", title.Sprint("Run"), snap.ID)
	fmt.Fprintf(w, "  finished at:   %s after %d passes\n", snap.Now, rounds)

	completed := fmt.Sprintf("%d/%d", summary.Completed(), placed)
	if summary.Completed() == placed {
		completed = good.Sprint(completed)
	} else {
		completed = warn.Sprint(completed)
	}

	fmt.Fprintf(w, "  completed:     %s\n", completed)
	fmt.Fprintf(w, "  average delay: %.1f min\n", summary.AverageDelay())
	fmt.Fprintf(w, "  median delay:  %.1f min\n", summary.MedianDelay())
	fmt.Fprintf(w, "  cars per day:  %.2f\n", summary.AveragePerDay())

	for _, day := range summary.Days() {
		fmt.Fprintf(w, "    day %d: %d\n", day, summary.CompletedOn(day))
	}

	fmt.Fprintln(w, title.Sprint("Lines"))

	for _, l := range snap.Lines {
		fmt.Fprintf(w, "  %-12s %s\n", l.Name, stateColor(l.State).Sprint(l.State))
	}
}

func stateColor(state string) *color.Color {
	switch state {
	case "Idle":
		return color.New(color.FgGreen)
	case "Broken":
		return color.New(color.FgRed)
	case "Maintenance":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
