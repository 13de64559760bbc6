package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
)

const (
	// Terminals report key presses only, so held keys decay after this long
	// without a repeat.
	inputHold    = 250 * time.Millisecond
	lineDuration = 3 * time.Second
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// eventMsg carries a room event into the Bubble Tea loop.
type eventMsg struct{ evt multiplayer.SessionEvent }

// disconnectedMsg reports that the event stream closed.
type disconnectedMsg struct{}

// Model is the Bubble Tea model for one player's view of the room.
type Model struct {
	self   string
	events <-chan multiplayer.SessionEvent
	sink   InputSink
	screen *core.Screen
	config core.RuntimeConfig
	keys   KeyMap
	help   help.Model
	now    func() time.Time

	snap   *shooter.Snapshot
	result *multiplayer.RunResult
	lines  []dialogue.Line
	lineAt time.Time

	input   core.InputState
	moveAt  time.Time
	shootAt time.Time

	err          error
	quitting     bool
	disconnected bool
}

// NewModel creates a model for player self. events delivers room events and
// sink receives the player's input.
func NewModel(self multiplayer.SessionID, events <-chan multiplayer.SessionEvent, sink InputSink, cfg core.RuntimeConfig) Model {
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}
	m := Model{
		self:   string(self),
		events: events,
		sink:   sink,
		config: cfg,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		now:    time.Now,
	}
	m.help.Width = cfg.ScreenW
	m.screen = core.NewScreen(cfg.ScreenW, m.fieldRows())
	return m
}

// Init starts the redraw loop and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.config.TickRate), m.waitForEvent())
}

// waitForEvent returns a command that waits for the next room event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return disconnectedMsg{}
		}
		return eventMsg{evt: evt}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		m.screen.Resize(msg.Width, m.fieldRows())
		return m, nil

	case TickMsg:
		return m.handleTick()

	case eventMsg:
		m.handleEvent(msg.evt)
		return m, m.waitForEvent()

	case disconnectedMsg:
		m.disconnected = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := m.now()
	in := m.input

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.screen.Resize(m.config.ScreenW, m.fieldRows())
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		if m.snap != nil && m.snap.GameOver {
			if err := m.sink.Restart(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		in.Move = core.DirLeft
		m.moveAt = now
	case key.Matches(msg, m.keys.Right):
		in.Move = core.DirRight
		m.moveAt = now
	case key.Matches(msg, m.keys.Fire):
		in.Shoot = true
		m.shootAt = now
	default:
		return m, nil
	}

	return m.setInput(in)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	now := m.now()

	in := m.input
	if in.Move != core.DirNone && now.Sub(m.moveAt) >= inputHold {
		in.Move = core.DirNone
	}
	if in.Shoot && now.Sub(m.shootAt) >= inputHold {
		in.Shoot = false
	}

	if len(m.lines) > 0 && now.Sub(m.lineAt) >= lineDuration {
		m.lines = m.lines[1:]
		m.lineAt = now
	}

	next, cmd := m.setInput(in)
	if cmd != nil {
		return next, cmd
	}
	return next, tickCmd(m.config.TickRate)
}

// setInput sends in when it differs from the last sent state.
func (m Model) setInput(in core.InputState) (Model, tea.Cmd) {
	if in == m.input {
		return m, nil
	}
	m.input = in
	if err := m.sink.SendInput(in); err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleEvent(evt multiplayer.SessionEvent) {
	switch e := evt.(type) {
	case multiplayer.StateEvent:
		snap := e.Snapshot
		m.snap = &snap
		if !snap.GameOver {
			m.result = nil
		}
	case multiplayer.DialogueEvent:
		if len(m.lines) == 0 {
			m.lineAt = m.now()
		}
		m.lines = append(m.lines, e.Outro...)
		m.lines = append(m.lines, e.Intro...)
	case multiplayer.RunEndedEvent:
		result := e.Result
		m.result = &result
	}
}

// fieldRows is the screen height left after the help view.
func (m Model) fieldRows() int {
	rows := 1
	if m.help.ShowAll {
		rows = 3
	}
	return max(m.config.ScreenH-rows, 0)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.snap == nil {
		m.screen.Clear()
		m.screen.DrawTextCentered(m.screen.Height()/2, "connecting...", core.ColorGray)
	} else {
		drawSnapshot(m.screen, *m.snap, m.self)
		if len(m.lines) > 0 {
			drawDialogue(m.screen, m.lines[0])
		}
	}

	return RenderScreen(m.screen) + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// Err returns the error that stopped the model, if any.
func (m Model) Err() error {
	return m.err
}

// Disconnected reports whether the event stream ended.
func (m Model) Disconnected() bool {
	return m.disconnected
}

// Play runs the terminal client against a connected server until the player
// quits or the connection drops.
func Play(ctx context.Context, c *Client, cfg core.RuntimeConfig) error {
	model := NewModel(c.ID(), c.Events(), c, cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return c.Err()
}
