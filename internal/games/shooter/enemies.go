package shooter

import "github.com/vovakirdan/skyfall/internal/core"

func (g *Game) enemyBox(e *Enemy) core.Box {
	return core.CenteredBox(e.X, e.Y, g.cfg.Enemies.Width, g.cfg.Enemies.Height)
}

// spawnEnemies releases a wave when the tick hits the level's spawn interval.
// Wave size scales with the number of players; an empty field spawns nothing.
func (g *Game) spawnEnemies() {
	interval := uint64(g.difficulty.Interval(g.state.Level))
	if g.state.Tick%interval != 0 {
		return
	}

	count := g.difficulty.WaveSize(g.state.Players.Len())
	speed := g.difficulty.EnemySpeed(g.state.Level)
	pattern := PatternStraight
	if g.difficulty.Zigzag(g.state.Level) {
		pattern = PatternZigzag
	}

	margin := g.cfg.Field.Margin
	span := g.width - 2*margin

	for range count {
		x := g.rng.Float64()*span + margin
		dir := core.DirRight
		if g.rng.Intn(2) == 0 {
			dir = core.DirLeft
		}
		g.state.Enemies = append(g.state.Enemies, Enemy{
			ID:        g.nextEnemyID,
			X:         x,
			Y:         g.cfg.Enemies.SpawnY,
			Speed:     speed,
			Pattern:   pattern,
			Direction: dir,
		})
		g.nextEnemyID++
	}
}

// updateEnemies moves enemies and removes those that left the field.
// It returns how many were removed that way.
func (g *Game) updateEnemies() int {
	lo := g.cfg.Field.Margin
	hi := g.width - g.cfg.Field.Margin
	avoided := 0

	kept := g.state.Enemies[:0]
	for i := range g.state.Enemies {
		e := g.state.Enemies[i]
		e.Y += e.Speed

		if e.Pattern == PatternZigzag {
			e.X += float64(e.Direction) * g.cfg.Enemies.ZigzagStep
			if e.X < lo || e.X > hi {
				e.Direction = -e.Direction
			}
		}

		if e.Y > g.cfg.Field.DespawnY {
			avoided++
			continue
		}
		kept = append(kept, e)
	}

	clear(g.state.Enemies[len(kept):])
	g.state.Enemies = kept
	return avoided
}
