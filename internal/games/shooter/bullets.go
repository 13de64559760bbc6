package shooter

import "github.com/vovakirdan/skyfall/internal/core"

func (g *Game) bulletBox(b *Bullet) core.Box {
	return core.CenteredBox(b.X, b.Y, g.cfg.Bullets.Width, g.cfg.Bullets.Height)
}

// updateBullets moves every bullet and resolves bullet/enemy hits. A bullet
// destroys at most the first enemy it overlaps, in enemy order.
func (g *Game) updateBullets() {
	kept := g.state.Bullets[:0]

	for i := range g.state.Bullets {
		b := g.state.Bullets[i]
		b.Y -= g.cfg.Bullets.Speed

		if g.hitEnemy(g.bulletBox(&b)) {
			g.state.Score += g.cfg.Bullets.KillScore
			continue
		}
		if b.Y < 0 {
			continue
		}
		kept = append(kept, b)
	}

	clear(g.state.Bullets[len(kept):])
	g.state.Bullets = kept
}

// hitEnemy removes the first enemy overlapping box and reports whether one was found.
func (g *Game) hitEnemy(box core.Box) bool {
	for j := range g.state.Enemies {
		if box.Intersects(g.enemyBox(&g.state.Enemies[j])) {
			g.state.Enemies = append(g.state.Enemies[:j], g.state.Enemies[j+1:]...)
			return true
		}
	}
	return false
}
