package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/skyfall/internal/rules"
)

var flagLevelsRules string

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the level rules table",
	Long: `Print the per-level rules: whether players can fire and the goal
that completes the level. Levels missing from the table use the
fallback rules.

Examples:
  skyfall levels
  skyfall levels --rules ./my-levels.yaml`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

func init() {
	levelsCmd.Flags().StringVar(&flagLevelsRules, "rules", "", "Path to a level rules YAML (default: built-in)")
}

func runLevels(_ *cobra.Command, _ []string) error {
	sys := rules.Default()
	if flagLevelsRules != "" {
		var err error
		if sys, err = rules.Load(flagLevelsRules); err != nil {
			return err
		}
	}

	fmt.Printf("  %-5s  %-8s  %s\n", "Level", "Fire", "Goal")
	fmt.Printf("  %-5s  %-8s  %s\n", "-----", "----", "----")
	for _, e := range sys.Levels() {
		fmt.Printf("  %-5d  %-8s  %s\n", e.Level, fireText(e.CanFire), goalText(e.Goal))
	}

	fmt.Println()
	fmt.Printf("Other levels: %s, %s\n", fireText(rules.Fallback.CanFire), goalText(rules.Fallback.Goal))
	return nil
}

func fireText(canFire bool) string {
	if canFire {
		return "yes"
	}
	return "offline"
}

func goalText(g rules.Goal) string {
	switch g.Type {
	case rules.GoalAvoid:
		return fmt.Sprintf("let %d enemies pass", g.Value)
	case rules.GoalScore:
		return fmt.Sprintf("reach score %d", g.Value)
	default:
		return string(g.Type)
	}
}
