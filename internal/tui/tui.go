// Package tui is a live terminal view of the daemon's dock decisions.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/intellihide/internal/ipc"
)

// DefaultRefreshInterval is how often the status is polled.
const DefaultRefreshInterval = 500 * time.Millisecond

// Daemon is the part of the IPC client the view drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	Suspend() error
	Resume() error
	SetOnlyActive(active bool) error
	Reload() error
}

// Run shows the status view until the user quits.
func Run(daemon Daemon, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	_, err := tea.NewProgram(newModel(daemon, interval), tea.WithAltScreen()).Run()
	return err
}
