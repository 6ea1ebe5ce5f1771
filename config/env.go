package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// The environment variables a run reads.
const (
	EnvConfig      = "CARLINE_CONFIG"
	EnvStatsDB     = "CARLINE_STATS_DB"
	EnvMonitorPort = "CARLINE_MONITOR_PORT"
	EnvLogLevel    = "CARLINE_LOG_LEVEL"
)

// Env holds the run settings taken from the environment.
type Env struct {
	// ConfigPath is the plant file. Empty means the built-in plant.
	ConfigPath string

	// StatsDB is the name of the completion database. Empty disables
	// recording.
	StatsDB string

	// MonitorPort is the port of the monitor. Zero picks a free port.
	MonitorPort int

	LogLevel slog.Level
}

// LoadEnv loads the given .env files into the environment and reads the
// settings. Without files, ./.env is loaded if it exists. Variables already
// set in the environment win over the files.
func LoadEnv(files ...string) (Env, error) {
	if err := loadDotEnv(files); err != nil {
		return Env{}, err
	}

	env := Env{
		ConfigPath: os.Getenv(EnvConfig),
		StatsDB:    os.Getenv(EnvStatsDB),
		LogLevel:   slog.LevelInfo,
	}

	if s := os.Getenv(EnvMonitorPort); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			return Env{}, fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		env.MonitorPort = port
	}

	if s := os.Getenv(EnvLogLevel); s != "" {
		if err := env.LogLevel.UnmarshalText([]byte(s)); err != nil {
			return Env{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}

	return env, nil
}

func loadDotEnv(files []string) error {
	if len(files) > 0 {
		return godotenv.Load(files...)
	}

	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}
