package desktop

import (
	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/platform"
)

const (
	stateModal         = "_NET_WM_STATE_MODAL"
	stateHidden        = "_NET_WM_STATE_HIDDEN"
	stateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
)

var windowTypeAtoms = map[string]intellihide.WindowType{
	"_NET_WM_WINDOW_TYPE_NORMAL":        intellihide.WindowNormal,
	"_NET_WM_WINDOW_TYPE_DESKTOP":       intellihide.WindowDesktop,
	"_NET_WM_WINDOW_TYPE_DOCK":          intellihide.WindowDock,
	"_NET_WM_WINDOW_TYPE_DIALOG":        intellihide.WindowDialog,
	"_NET_WM_WINDOW_TYPE_TOOLBAR":       intellihide.WindowToolbar,
	"_NET_WM_WINDOW_TYPE_MENU":          intellihide.WindowMenu,
	"_NET_WM_WINDOW_TYPE_UTILITY":       intellihide.WindowUtility,
	"_NET_WM_WINDOW_TYPE_SPLASH":        intellihide.WindowSplashscreen,
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": intellihide.WindowDropdownMenu,
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    intellihide.WindowPopupMenu,
	"_NET_WM_WINDOW_TYPE_TOOLTIP":       intellihide.WindowTooltip,
	"_NET_WM_WINDOW_TYPE_NOTIFICATION":  intellihide.WindowNotification,
	"_NET_WM_WINDOW_TYPE_COMBO":         intellihide.WindowCombo,
	"_NET_WM_WINDOW_TYPE_DND":           intellihide.WindowDND,
}

// WindowTypeOf maps EWMH window type atoms to a window type. The first
// recognized atom wins. Windows without a recognized type are dialogs when
// transient and normal otherwise.
func WindowTypeOf(w platform.Window) intellihide.WindowType {
	for _, atom := range w.Types {
		t, ok := windowTypeAtoms[atom]
		if !ok {
			continue
		}
		if t == intellihide.WindowDialog && w.HasState(stateModal) {
			return intellihide.WindowModalDialog
		}
		return t
	}
	if w.Transient {
		if w.HasState(stateModal) {
			return intellihide.WindowModalDialog
		}
		return intellihide.WindowDialog
	}
	return intellihide.WindowNormal
}

// Window adapts a platform window snapshot to intellihide.Window.
type Window struct {
	platform.Window
	activeDesktop int
}

var _ intellihide.Window = (*Window)(nil)

func (w *Window) OuterRect() platform.Rect { return w.Bounds }

func (w *Window) Type() intellihide.WindowType { return WindowTypeOf(w.Window) }

// Workspace reports the window's desktop. Sticky windows belong to every
// desktop, so they report the desktop that was active when listed.
func (w *Window) Workspace() (int, bool) {
	if w.Desktop == platform.StickyDesktop {
		return w.activeDesktop, true
	}
	if w.Desktop < 0 {
		return 0, false
	}
	return w.Desktop, true
}

func (w *Window) ShowingOnWorkspace() bool { return !w.HasState(stateHidden) }

func (w *Window) MaximizedHorizontally() bool { return w.HasState(stateMaximizedHorz) }

func (w *Window) MaximizedVertically() bool { return w.HasState(stateMaximizedVert) }

func (w *Window) WMClass() string { return w.Class }

type actor struct {
	win *Window
}

func (a actor) MetaWindow() (intellihide.Window, bool) {
	if a.win == nil {
		return nil, false
	}
	return a.win, true
}
