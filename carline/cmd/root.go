// Package cmd provides the command-line interface for carline.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/carline/config"
	"github.com/sarchlab/carline/simulation"
)

var (
	envFiles   []string
	configPath string
	logLevel   string

	env    config.Env
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "carline",
	Short: "carline schedules and simulates vehicle assembly lines.",
	Long: `carline schedules custom vehicle orders onto multi-post assembly ` +
		`lines, simulates the work on a virtual clock, and forecasts when ` +
		`orders complete. The plant comes from a TOML file and the orders ` +
		`from a YAML scenario.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		env, err = config.LoadEnv(envFiles...)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			if err := env.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
		}

		if configPath != "" {
			env.ConfigPath = configPath
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: env.LogLevel}))
		slog.SetDefault(logger)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		".env files to load, ./.env when omitted")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"plant file (TOML), the built-in plant when omitted")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"debug, info, warn or error")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadPlant builds the plant and places the orders of the scenario.
func loadPlant(
	scenarioPath string,
	configure func(simulation.Builder) simulation.Builder,
) (*simulation.Simulation, *config.Scenario, error) {
	plant, err := config.LoadPlant(env.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	scenario, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return nil, nil, err
	}

	b, err := plant.Builder(logger)
	if err != nil {
		return nil, nil, err
	}

	if configure != nil {
		b = configure(b)
	}

	sim, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	return sim, scenario, nil
}
