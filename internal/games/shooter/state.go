package shooter

import (
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/rules"
)

// Pattern is an enemy movement pattern.
type Pattern string

const (
	PatternStraight Pattern = "straight"
	PatternZigzag   Pattern = "zigzag"
)

// Player is one connected participant.
type Player struct {
	Name string  `json:"name" msgpack:"name"`
	X    float64 `json:"x" msgpack:"x"` // Horizontal center
	Y    float64 `json:"y" msgpack:"y"` // Top edge

	// Ticks until the next shot is allowed.
	Cooldown int `json:"cooldown" msgpack:"cooldown"`
}

// Bullet is a projectile travelling upward.
type Bullet struct {
	ID      uint64  `json:"id" msgpack:"id"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	OwnerID string  `json:"playerId" msgpack:"playerId"`
}

// Enemy is a hostile object descending from the top of the field.
type Enemy struct {
	ID        uint64         `json:"id" msgpack:"id"`
	X         float64        `json:"x" msgpack:"x"`
	Y         float64        `json:"y" msgpack:"y"`
	Speed     float64        `json:"speed" msgpack:"speed"`         // Pixels per tick, downward
	Pattern   Pattern        `json:"pattern" msgpack:"pattern"`
	Direction core.Direction `json:"direction" msgpack:"direction"` // Horizontal heading of zigzag enemies
}

// GameState is the complete simulation state. The engine mutates it in place.
type GameState struct {
	Tick         uint64
	Players      *Roster
	Bullets      []Bullet
	Enemies      []Enemy
	Level        int
	Score        int
	GoalProgress int // Enemies avoided toward an avoid goal
	GameOver     bool
	Waiting      bool
	Rules        rules.LevelRules
}

// Roster is an id-keyed player set that iterates in insertion order.
type Roster struct {
	order []string
	byID  map[string]*Player
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Player)}
}

// Put inserts or replaces a player. A replaced player keeps its position in
// the iteration order.
func (r *Roster) Put(id string, p *Player) {
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = p
}

// Get returns the player with the given id.
func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Delete removes a player. Unknown ids are ignored.
func (r *Roster) Delete(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of players.
func (r *Roster) Len() int {
	return len(r.order)
}

// IDs returns the player ids in insertion order.
func (r *Roster) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Each calls fn for every player in insertion order.
func (r *Roster) Each(fn func(id string, p *Player)) {
	for _, id := range r.order {
		fn(id, r.byID[id])
	}
}
