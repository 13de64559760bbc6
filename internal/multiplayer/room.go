package multiplayer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
	"github.com/vovakirdan/skyfall/internal/rules"
)

// ErrRoomClosed is returned by room operations after Run has returned.
var ErrRoomClosed = errors.New("multiplayer: room closed")

// Dialogue placeholders p1..pN are filled for at least this many players.
const placeholderSlots = 4

// RoomConfig holds the room's dependencies and tuning.
type RoomConfig struct {
	Game       config.ShooterConfig
	Rules      *rules.System    // nil selects the built-in table
	Dialogues  *dialogue.System // nil disables dialogue events
	Seed       int64            // Seed of the first run; later runs use Seed+n
	TickRate   int              // Overrides Game.Server.TickRate when positive
	MinPlayers int              // Overrides Game.Server.MinPlayers when positive
}

// Room runs the single shared game. All engine access happens on the
// goroutine executing Run; other goroutines communicate through commands.
type Room struct {
	cfg      RoomConfig
	sessions *SessionRegistry
	logger   *log.Logger
	saver    RunResultSaver
	recorder Recorder

	cmds     chan roomCommand
	inputs   chan playerInput
	done     chan struct{}
	doneOnce sync.Once
	nextID   atomic.Uint64

	// Owned by the Run goroutine.
	game     *shooter.Game
	runs     int64
	runID    string
	started  bool
	ended    bool
	runStart time.Time
	level    int
}

// NewRoom creates a room. Call Run to start it.
func NewRoom(cfg RoomConfig, logger *log.Logger) *Room {
	if cfg.Rules == nil {
		cfg.Rules = rules.Default()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = cfg.Game.Server.TickRate
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = cfg.Game.Server.MinPlayers
	}
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = 1
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Room{
		cfg:      cfg,
		sessions: NewSessionRegistry(),
		logger:   logger.WithPrefix("room"),
		cmds:     make(chan roomCommand, 64),
		inputs:   make(chan playerInput, 256),
		done:     make(chan struct{}),
	}
}

// SetResultSaver sets the optional run result saver.
func (r *Room) SetResultSaver(saver RunResultSaver) {
	r.saver = saver
}

// SetRecorder sets the optional metrics recorder.
func (r *Room) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// NextSessionID allocates a player id. Ids are "1", "2", ... for the room's lifetime.
func (r *Room) NextSessionID() SessionID {
	return SessionID(strconv.FormatUint(r.nextID.Add(1), 10))
}

// Sessions returns the registry of sessions receiving room events.
func (r *Room) Sessions() *SessionRegistry {
	return r.sessions
}

// Attach registers a session for state broadcasts. It does not add a player.
func (r *Room) Attach(s SessionHandle) {
	r.sessions.Register(s)
}

// Join adds a player to the current run. The first join creates the engine
// using width and height (zero selects the configured field size).
func (r *Room) Join(ctx context.Context, id SessionID, name string, width, height float64) error {
	ack := make(chan struct{})
	return r.submit(ctx, joinCmd{ID: id, Name: name, Width: width, Height: height, ack: ack}, ack)
}

// Leave removes a player and unregisters its session.
func (r *Room) Leave(ctx context.Context, id SessionID) error {
	ack := make(chan struct{})
	return r.submit(ctx, leaveCmd{ID: id, ack: ack}, ack)
}

// Restart requests a new run after game over. It is ignored while a run is active.
func (r *Room) Restart(id SessionID) {
	select {
	case r.cmds <- restartCmd{ID: id}:
	case <-r.done:
	default:
		// Queue full, drop
	}
}

// SendInput records the latest input of a player.
// Non-blocking, uses a buffered channel.
func (r *Room) SendInput(id SessionID, in core.InputState) {
	select {
	case r.inputs <- playerInput{id: id, input: in}:
	default:
		// Channel full, drop input (rare under normal conditions)
	}
}

func (r *Room) submit(ctx context.Context, cmd roomCommand, ack chan struct{}) error {
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the room stops.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run executes the room loop until ctx is cancelled.
func (r *Room) Run(ctx context.Context) error {
	defer r.doneOnce.Do(func() { close(r.done) })

	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
	defer ticker.Stop()

	r.logger.Info("room running", "tick_rate", r.cfg.TickRate, "min_players", r.cfg.MinPlayers)

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return nil
		case cmd := <-r.cmds:
			r.handle(cmd)
		case <-ticker.C:
			r.drainCommands()
			r.drainInputs()
			r.tick()
		}
	}
}

func (r *Room) drainCommands() {
	for {
		select {
		case cmd := <-r.cmds:
			r.handle(cmd)
		default:
			return
		}
	}
}

func (r *Room) drainInputs() {
	for {
		select {
		case pi := <-r.inputs:
			// Inputs queued before a leave arrive after the player is gone.
			if r.game == nil {
				continue
			}
			if _, ok := r.game.State().Players.Get(string(pi.id)); ok {
				r.game.SetInput(string(pi.id), pi.input)
			}
		default:
			return
		}
	}
}

func (r *Room) handle(cmd roomCommand) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
		close(c.ack)
	case leaveCmd:
		r.handleLeave(c)
		close(c.ack)
	case restartCmd:
		r.handleRestart(c)
	}
}

func (r *Room) handleJoin(c joinCmd) {
	if r.game == nil {
		w, h := r.cfg.Game.Field.ClampDimensions(c.Width, c.Height)
		r.newRun(w, h)
		r.logger.Info("engine created", "width", w, "height", h, "run", r.runID)
	}
	r.game.AddPlayer(string(c.ID), c.Name)
	r.logger.Info("player joined", "player", c.ID, "name", c.Name, "players", r.game.PlayerCount())
	r.updateWaiting()
}

func (r *Room) handleLeave(c leaveCmd) {
	r.sessions.Unregister(c.ID)
	if r.game == nil {
		return
	}

	r.game.RemovePlayer(string(c.ID))
	r.logger.Info("player left", "player", c.ID, "players", r.game.PlayerCount())

	if r.sessions.Count() == 0 {
		if r.started && !r.ended {
			r.finishRun(r.game.Snapshot(), RunEndAbandoned)
		}
		r.game = nil
		r.logger.Info("room empty, engine discarded")
		return
	}
	r.updateWaiting()
}

func (r *Room) handleRestart(c restartCmd) {
	if r.game == nil || !r.game.State().GameOver {
		return
	}

	old := r.game
	r.newRun(old.Width(), old.Height())
	old.State().Players.Each(func(id string, p *shooter.Player) {
		r.game.AddPlayer(id, p.Name)
	})
	r.logger.Info("run restarted", "by", c.ID, "run", r.runID)
	r.updateWaiting()
}

// newRun replaces the engine with a fresh one.
func (r *Room) newRun(width, height float64) {
	r.game = shooter.New(r.cfg.Game, r.cfg.Rules, width, height, r.cfg.Seed+r.runs)
	r.runs++
	r.runID = uuid.NewString()
	r.started = false
	r.ended = false
	r.level = r.game.State().Level
}

// updateWaiting starts or pauses the run depending on the player count.
func (r *Room) updateWaiting() {
	if r.game == nil {
		return
	}
	enough := r.game.PlayerCount() >= r.cfg.MinPlayers
	r.game.SetWaiting(!enough)

	if enough && !r.started {
		r.started = true
		r.runStart = time.Now()
		r.logger.Info("run started", "run", r.runID, "players", r.game.PlayerCount())
		r.sendDialogue(0, r.game.State().Level)
	}
}

func (r *Room) tick() {
	if r.game == nil {
		return
	}

	start := time.Now()
	r.game.Update()
	snap := r.game.Snapshot()

	if snap.Level != r.level {
		r.logger.Info("level up", "run", r.runID, "level", snap.Level, "score", snap.Score)
		r.sendDialogue(r.level, snap.Level)
		r.level = snap.Level
	}

	r.sessions.Broadcast(StateEvent{Snapshot: snap})

	if snap.GameOver && !r.ended {
		r.finishRun(snap, RunEndGameOver)
	}

	if r.recorder != nil {
		r.recorder.ObserveTick(time.Since(start), len(snap.Players), len(snap.Enemies), len(snap.Bullets), snap.Level)
	}
}

// sendDialogue broadcasts the outro of from (0 for none) and the intro of to.
func (r *Room) sendDialogue(from, to int) {
	if r.cfg.Dialogues == nil {
		return
	}
	placeholders := r.placeholders()

	evt := DialogueEvent{Level: to}
	if d, ok := r.cfg.Dialogues.ForLevel(from, placeholders); ok {
		evt.Outro = d.Outro
	}
	if d, ok := r.cfg.Dialogues.ForLevel(to, placeholders); ok {
		evt.Intro = d.Intro
	}
	if len(evt.Outro) == 0 && len(evt.Intro) == 0 {
		return
	}
	r.sessions.Broadcast(evt)
}

// placeholders maps p1..pN to player names in join order. Slots without a
// player read "AI".
func (r *Room) placeholders() map[string]string {
	names := r.game.PlayerNames()
	n := max(len(names), placeholderSlots)
	out := make(map[string]string, n)
	for i := range n {
		name := "AI"
		if i < len(names) {
			name = names[i]
		}
		out["p"+strconv.Itoa(i+1)] = name
	}
	return out
}

func (r *Room) finishRun(snap shooter.Snapshot, reason RunEndReason) {
	r.ended = true

	result := RunResult{
		RunID:    r.runID,
		Reason:   reason,
		Level:    snap.Level,
		Score:    snap.Score,
		Ticks:    snap.Tick,
		Players:  r.game.PlayerNames(),
		Duration: time.Since(r.runStart),
		EndedAt:  time.Now(),
	}

	r.logger.Info("run finished",
		"run", result.RunID,
		"reason", result.Reason,
		"level", result.Level,
		"score", result.Score,
		"ticks", result.Ticks,
	)

	if r.saver != nil {
		if err := r.saver.SaveRunResult(result); err != nil {
			r.logger.Error("failed to save run", "run", result.RunID, "err", err)
		}
	}
	if r.recorder != nil {
		r.recorder.RunFinished(string(reason))
	}
	r.sessions.Broadcast(RunEndedEvent{Result: result})
}

func (r *Room) shutdown() {
	if r.game != nil && r.started && !r.ended {
		r.finishRun(r.game.Snapshot(), RunEndAbandoned)
	}
	r.game = nil
	r.logger.Info("room stopped")
}
