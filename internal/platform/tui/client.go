package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
	"github.com/vovakirdan/skyfall/internal/protocol"
)

const (
	clientWriteWait = 10 * time.Second
	greetingWait    = 10 * time.Second
	clientBuffer    = 64
)

// ErrNoGreeting is returned by Dial when the server does not assign an id.
var ErrNoGreeting = errors.New("tui: server did not assign a player id")

// Client is a WebSocket connection to a skyfall server. It implements InputSink
// and delivers server messages as room events.
type Client struct {
	conn   *websocket.Conn
	codec  protocol.Codec
	id     multiplayer.SessionID
	events chan multiplayer.SessionEvent

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to a server's /ws endpoint, waits for the assigned id and
// joins the room as name. A zero width or height lets the server pick the field size.
func Dial(ctx context.Context, rawURL, codecName, name string, width, height float64) (*Client, error) {
	codec, err := protocol.Lookup(codecName)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("tui: bad server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot connect to %s: %w", u.Redacted(), err)
	}

	c := &Client{
		conn:   conn,
		codec:  codec,
		events: make(chan multiplayer.SessionEvent, clientBuffer),
		done:   make(chan struct{}),
	}

	if err := c.awaitGreeting(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.write(protocol.Init(name, width, height)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tui: cannot join: %w", err)
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) awaitGreeting() error {
	c.conn.SetReadDeadline(time.Now().Add(greetingWait))
	defer c.conn.SetReadDeadline(time.Time{})

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("tui: waiting for id: %w", err)
	}
	msg, err := protocol.DecodeServer(c.codec, data)
	if err != nil {
		return fmt.Errorf("tui: waiting for id: %w", err)
	}
	if msg.Type != protocol.TypeAssignID || msg.ID == "" {
		return ErrNoGreeting
	}
	c.id = multiplayer.SessionID(msg.ID)
	return nil
}

// readLoop turns server messages into events until the connection closes.
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		msg, err := protocol.DecodeServer(c.codec, data)
		if err != nil {
			continue
		}

		var evt multiplayer.SessionEvent
		switch msg.Type {
		case protocol.TypeState:
			evt = multiplayer.StateEvent{Snapshot: *msg.State}
		case protocol.TypeDialogue:
			evt = multiplayer.DialogueEvent{Level: msg.Dialogue.Level, Outro: msg.Dialogue.Outro, Intro: msg.Dialogue.Intro}
		default:
			continue
		}

		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}

// ID returns the player id the server assigned.
func (c *Client) ID() multiplayer.SessionID {
	return c.id
}

// Events returns server events. The channel closes when the connection ends.
func (c *Client) Events() <-chan multiplayer.SessionEvent {
	return c.events
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.err
}

// SendInput sends the latest input state.
func (c *Client) SendInput(in core.InputState) error {
	return c.write(protocol.Input(in))
}

// Restart asks the server for a new run.
func (c *Client) Restart() error {
	return c.write(protocol.Restart())
}

func (c *Client) write(msg protocol.ClientMessage) error {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		return err
	}
	frame := websocket.TextMessage
	if c.codec.Binary() {
		frame = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
	return c.conn.WriteMessage(frame, data)
}

func (c *Client) fail(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	c.writeMu.Lock()
	c.err = err
	c.writeMu.Unlock()
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
