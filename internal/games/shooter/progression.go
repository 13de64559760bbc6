package shooter

import "github.com/vovakirdan/skyfall/internal/rules"

// updateProgression applies the current goal and advances at most one level.
func (g *Game) updateProgression(avoided int) {
	goal := g.state.Rules.Goal

	var reached bool
	switch goal.Type {
	case rules.GoalAvoid:
		g.state.GoalProgress += avoided
		reached = g.state.GoalProgress >= goal.Value
	case rules.GoalScore:
		reached = g.state.Score >= goal.Value
	}

	if reached && g.difficulty.CanAdvance(g.state.Level) {
		g.state.Level++
		g.state.GoalProgress = 0
	}
}
