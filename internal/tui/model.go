package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/intellihide/internal/ipc"
)

type statusMsg struct {
	status *ipc.StatusData
	err    error
}

type tickMsg time.Time

type actionMsg struct {
	name string
	err  error
}

// model is the root bubbletea model for the status view.
type model struct {
	daemon   Daemon
	interval time.Duration

	status     *ipc.StatusData
	err        error
	lastAction string

	keys keyMap
	help help.Model

	width  int
	height int
}

func newModel(daemon Daemon, interval time.Duration) model {
	return model{
		daemon:   daemon,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), m.tick())
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		status, err := m.daemon.GetStatus()
		return statusMsg{status: status, err: err}
	}
}

func (m model) action(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{name: name, err: fn()}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchStatus(), m.tick())

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		} else {
			m.status = nil
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastAction = msg.name + " failed: " + msg.err.Error()
		} else {
			m.lastAction = msg.name
		}
		return m, m.fetchStatus()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			return m, m.action("reload", m.daemon.Reload)
		case key.Matches(msg, m.keys.Suspend):
			if m.status == nil {
				return m, nil
			}
			if m.status.Suspended {
				return m, m.action("resume", m.daemon.Resume)
			}
			return m, m.action("suspend", m.daemon.Suspend)
		case key.Matches(msg, m.keys.OnlyActive):
			if m.status == nil {
				return m, nil
			}
			next := !m.status.RestrictedToActiveWindow
			name := "only-active off"
			if next {
				name = "only-active on"
			}
			return m, m.action(name, func() error { return m.daemon.SetOnlyActive(next) })
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.err, m.width)
	body := renderBody(m.status, m.width)
	footer := renderFooter(m.lastAction, m.width)
	helpBar := helpStyle.Width(m.width).Render(m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		body,
		footer,
		helpBar,
	)
}
