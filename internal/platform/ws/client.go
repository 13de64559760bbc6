package ws

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/skyfall/internal/multiplayer"
	"github.com/vovakirdan/skyfall/internal/observability"
	"github.com/vovakirdan/skyfall/internal/protocol"
)

// client is one WebSocket connection bound to a room session.
type client struct {
	id      multiplayer.SessionID
	conn    *websocket.Conn
	codec   protocol.Codec
	session *multiplayer.ChannelSession
	room    *multiplayer.Room
	metrics *observability.Metrics
	logger  *log.Logger
}

// readPump decodes client frames and forwards them to the room. It returns
// when the connection fails or closes.
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", "err", err)
			}
			return
		}
		c.metrics.MessageIn()

		msg, err := protocol.DecodeClient(c.codec, data)
		if err != nil {
			c.metrics.DecodeError()
			c.logger.Warn("dropping message", "err", err)
			continue
		}

		if err := c.dispatch(msg); err != nil {
			if errors.Is(err, multiplayer.ErrRoomClosed) {
				return
			}
			c.logger.Warn("message failed", "type", msg.Type, "err", err)
		}
	}
}

func (c *client) dispatch(msg protocol.ClientMessage) error {
	switch msg.Type {
	case protocol.TypeInit:
		w, h := msg.FieldSize()
		ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()
		return c.room.Join(ctx, c.id, msg.PlayerName(string(c.id)), w, h)
	case protocol.TypeInput:
		c.room.SendInput(c.id, msg.InputState())
	case protocol.TypeRestart:
		c.room.Restart(c.id)
	}
	return nil
}

// writePump encodes room events onto the connection and keeps it alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.session.Events():
			msg, ok := toMessage(evt)
			if !ok {
				continue
			}
			if err := c.write(msg); err != nil {
				c.logger.Warn("write error", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.session.Done():
			c.closeFrame()
			return

		case <-c.room.Done():
			c.closeFrame()
			return
		}
	}
}

func (c *client) write(msg protocol.ServerMessage) error {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		return err
	}
	frame := websocket.TextMessage
	if c.codec.Binary() {
		frame = websocket.BinaryMessage
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(frame, data); err != nil {
		return err
	}
	c.metrics.MessageOut()
	return nil
}

func (c *client) closeFrame() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// toMessage converts a room event to its wire form. Events without a wire
// form report false.
func toMessage(evt multiplayer.SessionEvent) (protocol.ServerMessage, bool) {
	switch e := evt.(type) {
	case multiplayer.StateEvent:
		return protocol.State(e.Snapshot), true
	case multiplayer.DialogueEvent:
		return protocol.Dialogue(protocol.DialoguePayload{Level: e.Level, Outro: e.Outro, Intro: e.Intro}), true
	default:
		return protocol.ServerMessage{}, false
	}
}
