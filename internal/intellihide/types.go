package intellihide

import (
	"github.com/1broseidon/intellihide/internal/platform"
)

// WindowType mirrors the compositor's window type enumeration. The ordinal
// values are stable.
type WindowType int

const (
	WindowNormal WindowType = iota
	WindowDesktop
	WindowDock
	WindowDialog
	WindowModalDialog
	WindowToolbar
	WindowMenu
	WindowUtility
	WindowSplashscreen
	WindowDropdownMenu
	WindowPopupMenu
	WindowTooltip
	WindowNotification
	WindowCombo
	WindowDND
	WindowOverrideOther
)

var windowTypeNames = [...]string{
	"normal", "desktop", "dock", "dialog", "modal-dialog", "toolbar", "menu",
	"utility", "splashscreen", "dropdown-menu", "popup-menu", "tooltip",
	"notification", "combo", "dnd", "override-other",
}

func (t WindowType) String() string {
	if t < 0 || int(t) >= len(windowTypeNames) {
		return "unknown"
	}
	return windowTypeNames[t]
}

// Status is the asserted visibility of the panel.
type Status int

const (
	StatusUnknown Status = iota
	StatusShown
	StatusHidden
)

func (s Status) String() string {
	switch s {
	case StatusShown:
		return "shown"
	case StatusHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Window is a top-level window as seen by the policy.
type Window interface {
	// OuterRect is the frame rectangle including decorations.
	OuterRect() platform.Rect
	Type() WindowType
	// Workspace returns the index of the owning workspace, false when the
	// window has none.
	Workspace() (int, bool)
	// ShowingOnWorkspace reports whether the window is visible on its own
	// workspace (not minimized).
	ShowingOnWorkspace() bool
	MaximizedHorizontally() bool
	MaximizedVertically() bool
	WMClass() string
}

// Actor is a window handle that may no longer resolve to a window.
type Actor interface {
	MetaWindow() (Window, bool)
}

// Screen enumerates windows and workspaces.
type Screen interface {
	// WindowActors returns actors in bottom-to-top stacking order.
	WindowActors() []Actor
	ActiveWorkspace() int
}

// AppID identifies an application. The empty AppID means none.
type AppID string

// Tracker maps windows to applications.
type Tracker interface {
	FocusApp() (AppID, bool)
	WindowApp(w Window) (AppID, bool)
}

// Target owns the screen region the panel occupies.
type Target interface {
	StaticBox() platform.Box
}

// Stats counts policy activity.
type Stats struct {
	Recomputes int
	Shows      int
	Hides      int
}
