package shooter

import "github.com/vovakirdan/skyfall/internal/rules"

// Snapshot is a deep copy of the game state in wire form. It shares no
// memory with the engine and may be read from any goroutine.
type Snapshot struct {
	Tick         uint64            `json:"tick" msgpack:"tick"`
	Players      map[string]Player `json:"players" msgpack:"players"`
	Bullets      []Bullet          `json:"bullets" msgpack:"bullets"`
	Enemies      []Enemy           `json:"enemies" msgpack:"enemies"`
	Level        int               `json:"level" msgpack:"level"`
	Score        int               `json:"score" msgpack:"score"`
	GoalProgress int               `json:"goalProgress" msgpack:"goalProgress"`
	GameOver     bool              `json:"gameOver" msgpack:"gameOver"`
	Waiting      bool              `json:"waiting" msgpack:"waiting"`
	Rules        rules.LevelRules  `json:"rules" msgpack:"rules"`

	// Field dimensions, so clients can scale the view.
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Snapshot returns a deep copy of the current state.
func (g *Game) Snapshot() Snapshot {
	players := make(map[string]Player, g.state.Players.Len())
	g.state.Players.Each(func(id string, p *Player) {
		players[id] = *p
	})

	bullets := make([]Bullet, len(g.state.Bullets))
	copy(bullets, g.state.Bullets)

	enemies := make([]Enemy, len(g.state.Enemies))
	copy(enemies, g.state.Enemies)

	return Snapshot{
		Tick:         g.state.Tick,
		Players:      players,
		Bullets:      bullets,
		Enemies:      enemies,
		Level:        g.state.Level,
		Score:        g.state.Score,
		GoalProgress: g.state.GoalProgress,
		GameOver:     g.state.GameOver,
		Waiting:      g.state.Waiting,
		Rules:        g.state.Rules,
		Width:        g.width,
		Height:       g.height,
	}
}

// PlayerNames returns the player names in join order.
func (g *Game) PlayerNames() []string {
	names := make([]string, 0, g.state.Players.Len())
	g.state.Players.Each(func(_ string, p *Player) {
		names = append(names, p.Name)
	})
	return names
}
