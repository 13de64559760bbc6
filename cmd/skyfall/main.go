// skyfall is a server-authoritative multiplayer arcade shooter.
//
// Usage:
//
//	skyfall serve            - Host the shared room over WebSocket (and optionally SSH)
//	skyfall play <url>       - Play in the terminal against a running server
//	skyfall scores           - Show the best and most recent runs
//	skyfall levels           - Print the level rules table
//
// Global flags:
//
//	--config <path>     - Game and server configuration YAML
//	--seed <value>      - RNG seed for the first run (0 = time based)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/skyfall/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skyfall",
	Short: "Skyfall - a multiplayer arcade shooter",
	Long: `Skyfall is a server-authoritative multiplayer arcade shooter.
Players share one field, shoot down falling enemies and progress
through levels with their own rules and goals.

Available commands:
  serve    - Host the game room
  play     - Play in the terminal
  scores   - View the run leaderboard
  levels   - Print the level rules

Examples:
  skyfall serve --addr :8080 --ssh :23234
  skyfall play ws://localhost:8080/ws --name Alekos
  skyfall scores
  skyfall levels --rules ./my-levels.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(levelsCmd)
}

// newLogger builds the root logger all components derive from.
func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "skyfall",
		Level:           level,
	})
	return logger, nil
}

// loadConfig loads the configuration selected by --config.
func loadConfig() (config.ShooterConfig, error) {
	cfg, err := config.LoadShooter(flagConfig)
	if err != nil {
		return cfg, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}
