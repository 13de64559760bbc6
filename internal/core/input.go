package core

// Direction is a horizontal direction: -1 left, 0 none, 1 right.
// It doubles as the move axis of player input and the heading of zigzag enemies.
type Direction int

const (
	DirLeft  Direction = -1
	DirNone  Direction = 0
	DirRight Direction = 1
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirNone:
		return "none"
	default:
		return "unknown"
	}
}

// Normalize clamps any integer direction into {-1, 0, 1}.
func (d Direction) Normalize() Direction {
	switch {
	case d < 0:
		return DirLeft
	case d > 0:
		return DirRight
	default:
		return DirNone
	}
}

// InputState is the last-known input of one player. Input is level-triggered:
// the same state applies to every tick until the client sends a new one.
type InputState struct {
	Move  Direction `json:"move" msgpack:"move"`
	Shoot bool      `json:"shoot" msgpack:"shoot"`
}

// Clamped returns a copy with Move forced into {-1, 0, 1}.
func (in InputState) Clamped() InputState {
	in.Move = in.Move.Normalize()
	return in
}

// Idle reports whether the input requests nothing.
func (in InputState) Idle() bool {
	return in.Move == DirNone && !in.Shoot
}
