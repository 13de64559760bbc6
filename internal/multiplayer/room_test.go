package multiplayer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
)

type memorySaver struct {
	mu      sync.Mutex
	results []RunResult
}

func (s *memorySaver) SaveRunResult(r RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *memorySaver) all() []RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RunResult(nil), s.results...)
}

type countingRecorder struct {
	ticks    int
	finished []string
}

func (c *countingRecorder) ObserveTick(time.Duration, int, int, int, int) { c.ticks++ }
func (c *countingRecorder) RunFinished(reason string)                   { c.finished = append(c.finished, reason) }

func newTestRoom(t *testing.T, minPlayers int) (*Room, *memorySaver) {
	t.Helper()
	cfg := config.DefaultShooterConfig()
	cfg.Spawn.PerPlayer = 0

	r := NewRoom(RoomConfig{
		Game:       cfg,
		Dialogues:  dialogue.Default(),
		Seed:       7,
		MinPlayers: minPlayers,
	}, log.New(io.Discard))
	saver := &memorySaver{}
	r.SetResultSaver(saver)
	return r, saver
}

// attach registers a session and adds its player, bypassing the command queue.
func attach(r *Room, id, name string) *ChannelSession {
	s := NewChannelSession(SessionID(id), 1024)
	r.Attach(s)
	r.handleJoin(joinCmd{ID: SessionID(id), Name: name})
	return s
}

func drain(s *ChannelSession) []SessionEvent {
	var out []SessionEvent
	for {
		select {
		case evt := <-s.Events():
			out = append(out, evt)
		default:
			return out
		}
	}
}

func lastState(t *testing.T, events []SessionEvent) shooter.Snapshot {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(StateEvent); ok {
			return e.Snapshot
		}
	}
	t.Fatal("no state event received")
	return shooter.Snapshot{}
}

func dialogues(events []SessionEvent) []DialogueEvent {
	var out []DialogueEvent
	for _, e := range events {
		if d, ok := e.(DialogueEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

func TestFirstJoinCreatesEngine(t *testing.T) {
	r, _ := newTestRoom(t, 1)

	s := NewChannelSession("1", 1024)
	r.Attach(s)
	r.handleJoin(joinCmd{ID: "1", Name: "Alekos", Width: 1024, Height: 50})

	if r.game == nil {
		t.Fatal("engine not created")
	}
	if r.game.Width() != 1024 || r.game.Height() != 200 {
		t.Errorf("field = %vx%v, expected 1024x200", r.game.Width(), r.game.Height())
	}
	if r.runID == "" {
		t.Error("run id not assigned")
	}

	r.tick()
	snap := lastState(t, drain(s))
	if snap.Waiting || snap.Tick != 1 {
		t.Errorf("snapshot waiting=%v tick=%d, expected a running first tick", snap.Waiting, snap.Tick)
	}
	if _, ok := snap.Players["1"]; !ok {
		t.Error("player missing from snapshot")
	}
}

func TestRunStartSendsIntroDialogue(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	s := attach(r, "1", "Alekos")

	ds := dialogues(drain(s))
	if len(ds) != 1 {
		t.Fatalf("dialogue events = %d, expected 1", len(ds))
	}
	d := ds[0]
	if d.Level != 1 || len(d.Outro) != 0 || len(d.Intro) == 0 {
		t.Fatalf("dialogue = %+v", d)
	}
	if d.Intro[0].Speaker != "Alekos" || d.Intro[1].Speaker != "AI" {
		t.Errorf("speakers = %q, %q; expected Alekos, AI", d.Intro[0].Speaker, d.Intro[1].Speaker)
	}
}

func TestMinPlayersGate(t *testing.T) {
	r, _ := newTestRoom(t, 2)
	s1 := attach(r, "1", "a")

	r.tick()
	if snap := lastState(t, drain(s1)); !snap.Waiting || snap.Tick != 0 {
		t.Fatalf("run should wait for a second player, got waiting=%v tick=%d", snap.Waiting, snap.Tick)
	}

	attach(r, "2", "b")
	r.tick()
	if snap := lastState(t, drain(s1)); snap.Waiting || snap.Tick != 1 {
		t.Fatalf("run should start with two players, got waiting=%v tick=%d", snap.Waiting, snap.Tick)
	}

	r.handleLeave(leaveCmd{ID: "2"})
	r.tick()
	if snap := lastState(t, drain(s1)); !snap.Waiting || snap.Tick != 1 {
		t.Errorf("run should pause below the minimum, got waiting=%v tick=%d", snap.Waiting, snap.Tick)
	}
}

func TestLastLeaveDiscardsEngine(t *testing.T) {
	r, saver := newTestRoom(t, 1)
	attach(r, "1", "a")
	r.tick()

	r.handleLeave(leaveCmd{ID: "1"})

	if r.game != nil {
		t.Error("engine should be discarded when the room empties")
	}
	if r.sessions.Count() != 0 {
		t.Errorf("sessions = %d, expected 0", r.sessions.Count())
	}
	results := saver.all()
	if len(results) != 1 || results[0].Reason != RunEndAbandoned {
		t.Errorf("results = %+v, expected one abandoned run", results)
	}

	// A new join starts from scratch.
	s := attach(r, "2", "b")
	r.tick()
	if snap := lastState(t, drain(s)); snap.Tick != 1 || len(snap.Players) != 1 {
		t.Errorf("new engine snapshot tick=%d players=%d", snap.Tick, len(snap.Players))
	}
}

func TestInputsAreApplied(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	s := attach(r, "1", "a")

	r.SendInput("1", core.InputState{Move: core.DirRight})
	r.drainInputs()
	r.tick()

	if p := lastState(t, drain(s)).Players["1"]; p.X != 405 {
		t.Errorf("x = %v, expected 405", p.X)
	}
}

func TestInputsForAbsentPlayersAreDropped(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Room)
		id    SessionID
	}{
		{
			name:  "never joined",
			setup: func(*Room) {},
			id:    "9",
		},
		{
			name: "input queued before leave",
			setup: func(r *Room) {
				attach(r, "2", "b")
				r.SendInput("2", core.InputState{Move: core.DirLeft, Shoot: true})
				r.handleLeave(leaveCmd{ID: "2"})
			},
			id: "2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom(t, 1)
			attach(r, "1", "a")
			tc.setup(r)

			r.SendInput(tc.id, core.InputState{Move: core.DirRight})
			r.SendInput("1", core.InputState{Move: core.DirRight})
			r.drainInputs()

			if r.game.HasInput(string(tc.id)) {
				t.Errorf("input for absent player %q was buffered", tc.id)
			}
			if !r.game.HasInput("1") {
				t.Error("input for present player was not buffered")
			}
		})
	}
}

func TestLevelUpSendsDialogue(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	s := attach(r, "1", "Alekos")
	drain(s)

	r.game.State().GoalProgress = 50
	r.tick()

	ds := dialogues(drain(s))
	if len(ds) != 1 {
		t.Fatalf("dialogue events = %d, expected 1", len(ds))
	}
	if ds[0].Level != 2 || len(ds[0].Outro) == 0 || len(ds[0].Intro) == 0 {
		t.Errorf("dialogue = %+v, expected level 1 outro and level 2 intro", ds[0])
	}
	if got := ds[0].Outro[0].Text; got != "Systems are back. You can shoot now, Alekos." {
		t.Errorf("outro text = %q", got)
	}
}

func TestGameOverSavesOnceAndRestarts(t *testing.T) {
	r, saver := newTestRoom(t, 1)
	rec := &countingRecorder{}
	r.SetRecorder(rec)
	s := attach(r, "1", "a")

	r.game.State().Enemies = append(r.game.State().Enemies, shooter.Enemy{ID: 1, X: 400, Y: 530})
	r.tick()
	r.tick()
	r.tick()

	results := saver.all()
	if len(results) != 1 {
		t.Fatalf("saved results = %d, expected exactly 1", len(results))
	}
	first := results[0]
	if first.Reason != RunEndGameOver || first.Ticks != 1 || len(first.Players) != 1 || first.Players[0] != "a" {
		t.Errorf("result = %+v", first)
	}
	if rec.ticks != 3 || len(rec.finished) != 1 {
		t.Errorf("recorder ticks=%d finished=%v", rec.ticks, rec.finished)
	}

	var ended bool
	for _, e := range drain(s) {
		if _, ok := e.(RunEndedEvent); ok {
			ended = true
		}
	}
	if !ended {
		t.Error("no run ended event")
	}

	r.handleRestart(restartCmd{ID: "1"})
	if r.runID == first.RunID {
		t.Error("restart should assign a new run id")
	}
	r.tick()
	snap := lastState(t, drain(s))
	if snap.GameOver || snap.Tick != 1 {
		t.Errorf("restarted snapshot gameOver=%v tick=%d", snap.GameOver, snap.Tick)
	}
	if p, ok := snap.Players["1"]; !ok || p.Name != "a" {
		t.Errorf("player not carried over: %+v", snap.Players)
	}
}

func TestRestartIgnoredWhileRunning(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	attach(r, "1", "a")
	id := r.runID

	r.handleRestart(restartCmd{ID: "1"})
	if r.runID != id {
		t.Error("restart should be ignored before game over")
	}
}

func TestNextSessionID(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	if a, b := r.NextSessionID(), r.NextSessionID(); a != "1" || b != "2" {
		t.Errorf("ids = %s, %s; expected 1, 2", a, b)
	}
}

func TestRunLoop(t *testing.T) {
	r, _ := newTestRoom(t, 1)
	r.cfg.TickRate = 200

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	s := NewChannelSession(r.NextSessionID(), 1024)
	r.Attach(s)
	if err := r.Join(ctx, s.ID(), "a", 800, 600); err != nil {
		t.Fatalf("Join: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for running := false; !running; {
		select {
		case evt := <-s.Events():
			if st, ok := evt.(StateEvent); ok && st.Snapshot.Tick > 0 {
				running = true
			}
		case <-deadline:
			t.Fatal("no running state received")
		}
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run returned %v", err)
	}

	if err := r.Join(context.Background(), "9", "late", 0, 0); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Join after stop = %v, expected ErrRoomClosed", err)
	}
}
