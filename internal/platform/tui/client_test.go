package tui

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
	"github.com/vovakirdan/skyfall/internal/platform/ws"
	"github.com/vovakirdan/skyfall/internal/protocol"
)

func startRoom(t *testing.T) (*multiplayer.Room, context.CancelFunc) {
	t.Helper()
	cfg := config.DefaultShooterConfig()
	cfg.Spawn.PerPlayer = 0
	room := multiplayer.NewRoom(multiplayer.RoomConfig{Game: cfg, TickRate: 100}, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		room.Run(ctx)
	}()
	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return room, stop
}

func startWS(t *testing.T) string {
	t.Helper()
	room, _ := startRoom(t)
	srv, err := ws.NewServer(room, ws.Options{}, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

// nextState waits for a state event matching ok.
func nextState(t *testing.T, events <-chan multiplayer.SessionEvent, ok func(multiplayer.StateEvent) bool) multiplayer.StateEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case evt, open := <-events:
			if !open {
				t.Fatal("event stream closed")
			}
			if st, isState := evt.(multiplayer.StateEvent); isState && ok(st) {
				return st
			}
		case <-timeout:
			t.Fatal("no matching state")
		}
	}
}

func TestDialPlaysThroughServer(t *testing.T) {
	for _, codec := range protocol.Names() {
		t.Run(codec, func(t *testing.T) {
			url := startWS(t)

			c, err := Dial(context.Background(), url, codec, "Alekos", 0, 0)
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			defer c.Close()

			if c.ID() != "1" {
				t.Errorf("id = %q, expected 1", c.ID())
			}

			st := nextState(t, c.Events(), func(st multiplayer.StateEvent) bool {
				return len(st.Snapshot.Players) == 1
			})
			start := st.Snapshot.Players["1"]
			if start.Name != "Alekos" {
				t.Errorf("player = %+v", start)
			}

			if err := c.SendInput(core.InputState{Move: core.DirLeft}); err != nil {
				t.Fatal(err)
			}
			nextState(t, c.Events(), func(st multiplayer.StateEvent) bool {
				return st.Snapshot.Players["1"].X < start.X
			})
		})
	}
}

func TestClientCloseEndsEvents(t *testing.T) {
	url := startWS(t)
	c, err := Dial(context.Background(), url, "json", "a", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Close()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case _, open := <-c.Events():
			if !open {
				if c.Err() != nil {
					t.Errorf("Err after local close = %v", c.Err())
				}
				return
			}
		case <-timeout:
			t.Fatal("events not closed")
		}
	}
}

func TestDialErrors(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", "xml", "a", 0, 0); !errors.Is(err, protocol.ErrUnknownCodec) {
		t.Errorf("unknown codec err = %v", err)
	}
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", "json", "a", 0, 0); err == nil {
		t.Error("expected connection error")
	}
}

func TestRoomSinkAfterStop(t *testing.T) {
	room, stop := startRoom(t)
	sink := NewRoomSink(room, "1")
	if err := sink.SendInput(core.InputState{}); err != nil {
		t.Fatalf("SendInput on running room: %v", err)
	}

	stop()
	if err := sink.SendInput(core.InputState{}); !errors.Is(err, multiplayer.ErrRoomClosed) {
		t.Errorf("SendInput after stop = %v", err)
	}
	if err := sink.Restart(); !errors.Is(err, multiplayer.ErrRoomClosed) {
		t.Errorf("Restart after stop = %v", err)
	}
}
