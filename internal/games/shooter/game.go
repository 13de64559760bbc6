// Package shooter implements the server-authoritative simulation of a
// cooperative vertical shooter. Players move along the bottom of the field,
// fire upward and must avoid or destroy enemies falling from the top while
// the level rules decide whether firing is allowed and what completes a level.
//
// The engine is single-threaded: every method must be called from the
// goroutine that owns the Game. Other goroutines read Snapshot copies.
package shooter

import (
	"math/rand"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/rules"
)

// Game owns one GameState and advances it one tick at a time.
type Game struct {
	cfg        config.ShooterConfig
	rules      *rules.System
	difficulty *config.Difficulty
	rng        *rand.Rand

	width  float64
	height float64

	state  GameState
	inputs map[string]core.InputState

	nextBulletID uint64
	nextEnemyID  uint64
}

// New creates an engine for a field of the given size. The engine starts
// waiting at level 1 with the level 1 rules already applied.
func New(cfg config.ShooterConfig, rs *rules.System, width, height float64, seed int64) *Game {
	if rs == nil {
		rs = rules.Default()
	}
	width, height = cfg.Field.ClampDimensions(width, height)

	g := &Game{
		cfg:        cfg,
		rules:      rs,
		difficulty: config.NewDifficulty(cfg.Spawn),
		rng:        rand.New(rand.NewSource(seed)),
		width:      width,
		height:     height,
		inputs:     make(map[string]core.InputState),
	}
	g.state = GameState{
		Players: NewRoster(),
		Bullets: []Bullet{},
		Enemies: []Enemy{},
		Level:   1,
		Waiting: true,
		Rules:   rs.ForLevel(1),
	}
	return g
}

// Width returns the field width in pixels.
func (g *Game) Width() float64 {
	return g.width
}

// Height returns the field height in pixels.
func (g *Game) Height() float64 {
	return g.height
}

// State returns the live state. Callers must not retain it across ticks
// outside the owning goroutine.
func (g *Game) State() *GameState {
	return &g.state
}

// PlayerCount returns the number of players in the run.
func (g *Game) PlayerCount() int {
	return g.state.Players.Len()
}

// AddPlayer places a player at the spawn point. Adding an existing id
// replaces that player.
func (g *Game) AddPlayer(id, name string) {
	g.state.Players.Put(id, &Player{
		Name: name,
		X:    g.width / 2,
		Y:    g.height - g.cfg.Player.SpawnOffset,
	})
}

// RemovePlayer removes a player and its buffered input. Its bullets stay in flight.
func (g *Game) RemovePlayer(id string) {
	g.state.Players.Delete(id)
	delete(g.inputs, id)
}

// SetInput records the latest input for a player. Input for ids that are not
// (yet) players is kept until RemovePlayer.
func (g *Game) SetInput(id string, in core.InputState) {
	g.inputs[id] = in.Clamped()
}

// HasInput reports whether an input is buffered for id.
func (g *Game) HasInput(id string) bool {
	_, ok := g.inputs[id]
	return ok
}

// SetWaiting pauses or resumes the simulation.
func (g *Game) SetWaiting(waiting bool) {
	g.state.Waiting = waiting
}

// Update advances the simulation by exactly one tick.
func (g *Game) Update() {
	if g.state.Waiting || g.state.GameOver {
		return
	}

	g.state.Tick++

	g.updatePlayers()
	g.updateBullets()
	g.spawnEnemies()
	avoided := g.updateEnemies()
	g.updateProgression(avoided)
	g.checkGameOver()

	g.state.Rules = g.rules.ForLevel(g.state.Level)
}

func (g *Game) updatePlayers() {
	lo := g.cfg.Field.Margin
	hi := g.width - g.cfg.Field.Margin

	g.state.Players.Each(func(id string, p *Player) {
		in := g.inputs[id]

		p.X = core.ClampF(p.X+float64(in.Move)*g.cfg.Player.Speed, lo, hi)

		if p.Cooldown > 0 {
			p.Cooldown--
		}
		if g.state.Rules.CanFire && in.Shoot && p.Cooldown <= 0 {
			g.state.Bullets = append(g.state.Bullets, Bullet{
				ID:      g.nextBulletID,
				X:       p.X,
				Y:       p.Y,
				OwnerID: id,
			})
			g.nextBulletID++
			p.Cooldown = g.cfg.Player.ReloadTicks
		}
	})
}

func (g *Game) playerBox(p *Player) core.Box {
	return core.CenteredBox(p.X, p.Y, g.cfg.Player.Width, g.cfg.Player.Height)
}

func (g *Game) checkGameOver() {
	if g.state.GameOver {
		return
	}
	g.state.Players.Each(func(_ string, p *Player) {
		if g.state.GameOver {
			return
		}
		box := g.playerBox(p)
		for i := range g.state.Enemies {
			if box.Intersects(g.enemyBox(&g.state.Enemies[i])) {
				g.state.GameOver = true
				return
			}
		}
	})
}
