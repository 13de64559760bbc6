package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/skyfall/internal/platform/tui"
	"github.com/vovakirdan/skyfall/internal/storage"
)

var (
	flagScoresDB    string
	flagScoresLimit int
	flagScoresPlain bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the run leaderboard",
	Long: `Display the best runs stored by the server.

In a terminal this opens an interactive leaderboard (tab switches
between top and recent runs). Use --plain or redirect the output
for a printed table.

Examples:
  skyfall scores
  skyfall scores --plain --limit 5
  skyfall scores --db ./runs.db`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagScoresDB, "db", "", "Path to the run database (default from config)")
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of runs to print")
	scoresCmd.Flags().BoolVar(&flagScoresPlain, "plain", false, "Print a plain table instead of the interactive view")
}

func runScores(_ *cobra.Command, _ []string) error {
	dbPath := flagScoresDB
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Server.DBPath
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if !flagScoresPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		width, height := 80, 24
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h
		}
		return tui.RunScoreboard(store, width, height)
	}

	runs, err := store.TopRuns(flagScoresLimit)
	if err != nil {
		return err
	}

	fmt.Println("Skyfall - Top Runs")
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Start 'skyfall serve' and play a run to set the first score!")
		return nil
	}

	fmt.Printf("  %-4s  %-8s  %-5s  %-10s  %-16s  %s\n", "Rank", "Score", "Level", "End", "Date", "Players")
	fmt.Printf("  %-4s  %-8s  %-5s  %-10s  %-16s  %s\n", "----", "-----", "-----", "---", "----", "-------")
	for i, r := range runs {
		fmt.Printf("  %-4d  %-8d  %-5d  %-10s  %-16s  %s\n",
			i+1, r.Score, r.Level, r.EndReason,
			r.CreatedAt.Format("2006-01-02 15:04"),
			strings.Join(r.PlayerNames, ", "),
		)
	}

	fmt.Println()
	if best, err := store.HighScore(); err == nil {
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}
