// Package protocol defines the messages exchanged between game clients and the
// server, and the codecs that put them on the wire.
package protocol

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
)

// MessageType discriminates messages in both directions.
type MessageType string

// Client to server.
const (
	TypeInit    MessageType = "init"
	TypeInput   MessageType = "input"
	TypeRestart MessageType = "restart"
)

// Server to client.
const (
	TypeAssignID MessageType = "assign_id"
	TypeState    MessageType = "state"
	TypeDialogue MessageType = "dialogue"
)

// ErrUnknownMessage is returned when a message carries an unsupported type.
var ErrUnknownMessage = errors.New("protocol: unknown message type")

// Dimensions is the field size a client renders at.
type Dimensions struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// ClientMessage is any message a client sends. Fields not used by Type are empty.
type ClientMessage struct {
	Type       MessageType      `json:"type" msgpack:"type"`
	Name       string           `json:"name,omitempty" msgpack:"name,omitempty"`
	Dimensions *Dimensions      `json:"dimensions,omitempty" msgpack:"dimensions,omitempty"`
	Input      *core.InputState `json:"input,omitempty" msgpack:"input,omitempty"`
}

// Validate checks that the message type is one a client may send.
func (m ClientMessage) Validate() error {
	switch m.Type {
	case TypeInit, TypeInput, TypeRestart:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
}

// PlayerName returns the requested name, or "Player <id>" when none was given.
func (m ClientMessage) PlayerName(id string) string {
	if m.Name != "" {
		return m.Name
	}
	return "Player " + id
}

// FieldSize returns the requested dimensions, zero when absent.
func (m ClientMessage) FieldSize() (float64, float64) {
	if m.Dimensions == nil {
		return 0, 0
	}
	return m.Dimensions.Width, m.Dimensions.Height
}

// InputState returns the carried input, idle when absent.
func (m ClientMessage) InputState() core.InputState {
	if m.Input == nil {
		return core.InputState{}
	}
	return *m.Input
}

// Init builds an init message.
func Init(name string, width, height float64) ClientMessage {
	return ClientMessage{Type: TypeInit, Name: name, Dimensions: &Dimensions{Width: width, Height: height}}
}

// Input builds an input message.
func Input(in core.InputState) ClientMessage {
	return ClientMessage{Type: TypeInput, Input: &in}
}

// Restart builds a restart request.
func Restart() ClientMessage {
	return ClientMessage{Type: TypeRestart}
}

// DialoguePayload carries the lines shown between levels. Outro belongs to the
// level just completed, Intro to Level.
type DialoguePayload struct {
	Level int             `json:"level" msgpack:"level"`
	Outro []dialogue.Line `json:"outro,omitempty" msgpack:"outro,omitempty"`
	Intro []dialogue.Line `json:"intro,omitempty" msgpack:"intro,omitempty"`
}

// ServerMessage is any message the server sends.
type ServerMessage struct {
	Type     MessageType       `json:"type" msgpack:"type"`
	ID       string            `json:"id,omitempty" msgpack:"id,omitempty"`
	State    *shooter.Snapshot `json:"state,omitempty" msgpack:"state,omitempty"`
	Dialogue *DialoguePayload  `json:"dialogue,omitempty" msgpack:"dialogue,omitempty"`
}

// Validate checks that the message type is one a server may send.
func (m ServerMessage) Validate() error {
	switch m.Type {
	case TypeAssignID, TypeState, TypeDialogue:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
}

// AssignID builds the greeting that tells a client its player id.
func AssignID(id string) ServerMessage {
	return ServerMessage{Type: TypeAssignID, ID: id}
}

// State wraps a snapshot.
func State(s shooter.Snapshot) ServerMessage {
	return ServerMessage{Type: TypeState, State: &s}
}

// Dialogue wraps a dialogue payload.
func Dialogue(p DialoguePayload) ServerMessage {
	return ServerMessage{Type: TypeDialogue, Dialogue: &p}
}
