package palette

import (
	"errors"
	"fmt"

	"github.com/1broseidon/intellihide/internal/ipc"
)

// Action identifiers.
const (
	ActionSuspend       = "suspend"
	ActionResume        = "resume"
	ActionOnlyActiveOn  = "only-active-on"
	ActionOnlyActiveOff = "only-active-off"
	ActionReload        = "reload"
)

// Daemon is the part of the IPC client the palette drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	Suspend() error
	Resume() error
	SetOnlyActive(active bool) error
	Reload() error
}

// Items returns the dock actions that apply to status.
func Items(status *ipc.StatusData) []Item {
	items := make([]Item, 0, 3)
	if status.Suspended {
		items = append(items, Item{Label: "Resume hiding the dock", Action: ActionResume, Icon: "media-playback-start"})
	} else {
		items = append(items, Item{Label: "Keep the dock shown", Action: ActionSuspend, Icon: "media-playback-pause"})
	}
	if status.RestrictedToActiveWindow {
		items = append(items, Item{Label: "Hide for any window", Action: ActionOnlyActiveOff, Icon: "view-restore", IsActive: true})
	} else {
		items = append(items, Item{Label: "Hide only for the focused app", Action: ActionOnlyActiveOn, Icon: "view-fullscreen"})
	}
	items = append(items, Item{Label: "Reload configuration", Action: ActionReload, Icon: "view-refresh"})
	return items
}

// Message summarizes status for the picker's message bar.
func Message(status *ipc.StatusData) string {
	msg := "dock " + status.Visibility
	if status.Suspended {
		msg += " (suspended)"
	}
	if status.FocusApp != "" {
		msg += ", focus: " + status.FocusApp
	}
	return msg
}

// Perform runs the daemon call for action.
func Perform(d Daemon, action string) error {
	switch action {
	case ActionSuspend:
		return d.Suspend()
	case ActionResume:
		return d.Resume()
	case ActionOnlyActiveOn:
		return d.SetOnlyActive(true)
	case ActionOnlyActiveOff:
		return d.SetOnlyActive(false)
	case ActionReload:
		return d.Reload()
	default:
		return fmt.Errorf("unknown palette action %q", action)
	}
}

// Run shows the dock actions and performs the chosen one. A cancelled
// picker is not an error.
func Run(l *Launcher, d Daemon) error {
	status, err := d.GetStatus()
	if err != nil {
		return err
	}
	item, err := l.Choose("intellihide", Message(status), Items(status))
	if errors.Is(err, ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	return Perform(d, item.Action)
}
