package multiplayer

import (
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
)

// SessionEvent represents an event sent from the room to a session.
type SessionEvent interface {
	sessionEvent()
}

// StateEvent carries the state after a tick. The snapshot is shared by all
// receivers and must be treated as read-only.
type StateEvent struct {
	Snapshot shooter.Snapshot
}

func (StateEvent) sessionEvent() {}

// DialogueEvent is sent when a run starts and whenever the level changes.
// Outro belongs to the level just completed and is empty at run start.
type DialogueEvent struct {
	Level int
	Outro []dialogue.Line
	Intro []dialogue.Line
}

func (DialogueEvent) sessionEvent() {}

// RunEndedEvent is sent once when a run finishes.
type RunEndedEvent struct {
	Result RunResult
}

func (RunEndedEvent) sessionEvent() {}

// roomCommand is a mutation queued for the room goroutine.
type roomCommand interface {
	roomCommand()
}

// joinCmd adds a player, creating the engine if none exists.
type joinCmd struct {
	ID     SessionID
	Name   string
	Width  float64
	Height float64
	ack    chan struct{}
}

func (joinCmd) roomCommand() {}

// leaveCmd removes a player and its session.
type leaveCmd struct {
	ID  SessionID
	ack chan struct{}
}

func (leaveCmd) roomCommand() {}

// restartCmd rebuilds a finished run with the same players.
type restartCmd struct {
	ID SessionID
}

func (restartCmd) roomCommand() {}

// playerInput is the latest input of one player.
type playerInput struct {
	id    SessionID
	input core.InputState
}
