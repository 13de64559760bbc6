package tui

import (
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
)

// InputSink receives the local player's commands.
type InputSink interface {
	SendInput(in core.InputState) error
	Restart() error
}

// RoomSink forwards input to an in-process room.
type RoomSink struct {
	room *multiplayer.Room
	id   multiplayer.SessionID
}

// NewRoomSink returns an InputSink for the player id in room.
func NewRoomSink(room *multiplayer.Room, id multiplayer.SessionID) RoomSink {
	return RoomSink{room: room, id: id}
}

func (s RoomSink) SendInput(in core.InputState) error {
	if err := s.closed(); err != nil {
		return err
	}
	s.room.SendInput(s.id, in)
	return nil
}

func (s RoomSink) Restart() error {
	if err := s.closed(); err != nil {
		return err
	}
	s.room.Restart(s.id)
	return nil
}

func (s RoomSink) closed() error {
	select {
	case <-s.room.Done():
		return multiplayer.ErrRoomClosed
	default:
		return nil
	}
}
