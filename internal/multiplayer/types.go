// Package multiplayer hosts the shared game room: it owns the simulation,
// serializes every mutation onto one goroutine, ticks at a fixed rate and fans
// state out to connected sessions. It is transport-neutral; WebSocket and SSH
// front ends talk to it through SessionHandle.
package multiplayer

import "time"

// SessionID uniquely identifies a connected client. It doubles as the player id.
type SessionID string

// RunEndReason describes why a run stopped.
type RunEndReason string

const (
	RunEndGameOver  RunEndReason = "game_over" // A player was hit
	RunEndAbandoned RunEndReason = "abandoned" // Everyone left before game over
)

// RunResult is the outcome of one finished run.
type RunResult struct {
	RunID    string
	Reason   RunEndReason
	Level    int
	Score    int
	Ticks    uint64
	Players  []string // Names in join order
	Duration time.Duration
	EndedAt  time.Time
}

// RunResultSaver persists finished runs.
// This allows the room to save results without depending on the storage package.
type RunResultSaver interface {
	SaveRunResult(result RunResult) error
}

// Recorder receives per-tick measurements. Implementations must be cheap and
// must not block.
type Recorder interface {
	ObserveTick(d time.Duration, players, enemies, bullets, level int)
	RunFinished(reason string)
}
