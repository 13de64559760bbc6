package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/skyfall/internal/storage"
)

// Scoreboard layout constants
const (
	maxRuns       = 100 // Max runs to load per view
	tableMinWidth = 60
)

// RunSource is the read side of the run store.
type RunSource interface {
	TopRuns(limit int) ([]storage.RunRecord, error)
	RecentRuns(limit int) ([]storage.RunRecord, error)
}

// scoreboardView selects which runs the table lists.
type scoreboardView int

const (
	viewTop scoreboardView = iota
	viewRecent
)

func (v scoreboardView) String() string {
	if v == viewRecent {
		return "RECENT RUNS"
	}
	return "TOP RUNS"
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	SwitchView key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.SwitchView, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.SwitchView, k.Quit}}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab", "left", "right"),
			key.WithHelp("tab", "top/recent"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ScoreboardModel is the Bubble Tea model for the run leaderboard.
type ScoreboardModel struct {
	source RunSource
	view   scoreboardView
	runs   []storage.RunRecord
	err    error
	table  table.Model
	help   help.Model
	keys   ScoreboardKeyMap
	width  int
	height int
	done   bool
}

// NewScoreboardModel creates a new scoreboard model.
func NewScoreboardModel(source RunSource, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		source: source,
		keys:   DefaultScoreboardKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.loadRuns()
	return m
}

// createTable creates a new table sized to the window.
func (m *ScoreboardModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Score", Width: 8},
		{Title: "Level", Width: 6},
		{Title: "Players", Width: 20},
		{Title: "End", Width: 10},
		{Title: "Date", Width: 12},
	}

	// Give spare width to the player list
	if extra := m.width - 4 - tableMinWidth - 2*len(columns); extra > 0 {
		columns[3].Width += min(extra, 30)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns reloads the runs for the current view.
func (m *ScoreboardModel) loadRuns() {
	m.runs, m.err = nil, nil
	if m.source != nil {
		if m.view == viewRecent {
			m.runs, m.err = m.source.RecentRuns(maxRuns)
		} else {
			m.runs, m.err = m.source.TopRuns(maxRuns)
		}
	}
	m.table.SetRows(runRows(m.runs))
	m.table.GotoTop()
}

// runRows formats runs as table rows.
func runRows(runs []storage.RunRecord) []table.Row {
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.Level),
			strings.Join(r.PlayerNames, ", "),
			r.EndReason,
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return rows
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.SwitchView):
			m.view = (m.view + 1) % 2
			m.loadRuns()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(runRows(m.runs))
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(titleStyle.Render("SKYFALL - " + m.view.String()))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an empty/error message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.err != nil:
		return emptyStyle.Render("Could not load runs: " + m.err.Error())
	case len(m.runs) == 0:
		return emptyStyle.Render("No runs recorded yet.\nStart a server and play one!")
	default:
		return m.table.View()
	}
}

// RunScoreboard runs the scoreboard screen until the user quits.
func RunScoreboard(source RunSource, width, height int) error {
	p := tea.NewProgram(
		NewScoreboardModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
