package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// EWMH state atoms used by the intellihide adapters.
const (
	StateHidden         = "_NET_WM_STATE_HIDDEN"
	StateModal          = "_NET_WM_STATE_MODAL"
	StateMaximizedHorz  = "_NET_WM_STATE_MAXIMIZED_HORZ"
	StateMaximizedVert  = "_NET_WM_STATE_MAXIMIZED_VERT"
	stickyDesktopMarker = 0xFFFFFFFF
)

// StackingOrder returns managed windows bottom-to-top using
// _NET_CLIENT_LIST_STACKING, falling back to _NET_CLIENT_LIST.
func (c *Connection) StackingOrder() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err == nil {
		return clients, nil
	}
	clients, fallbackErr := ewmh.ClientListGet(c.XUtil)
	if fallbackErr != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// WindowTypes returns the _NET_WM_WINDOW_TYPE atoms of a window.
func (c *Connection) WindowTypes(windowID xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return types
}

// WindowStates returns the _NET_WM_STATE atoms of a window.
func (c *Connection) WindowStates(windowID xproto.Window) []string {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return states
}

// MaximizedState reports the horizontal and vertical maximization flags.
func MaximizedState(states []string) (horz, vert bool) {
	for _, state := range states {
		switch state {
		case StateMaximizedHorz:
			horz = true
		case StateMaximizedVert:
			vert = true
		}
	}
	return horz, vert
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		// No frame extents available, return zeros
		return 0, 0, 0, 0
	}

	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// ClientRect returns the client area of a window in root coordinates.
func (c *Connection) ClientRect(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// OuterRect returns the window rectangle including decorations.
func (c *Connection) OuterRect(windowID xproto.Window) (x, y, width, height int, err error) {
	x, y, width, height, err = c.ClientRect(windowID)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	left, right, top, bottom := c.GetFrameExtents(windowID)
	return x - left, y - top, width + left + right, height + top + bottom, nil
}

// WindowClass returns the WM_CLASS instance and class of a window.
func (c *Connection) WindowClass(windowID xproto.Window) (instance, class string) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(wmClass.Instance), strings.TrimSpace(wmClass.Class)
}

// IsTransient reports whether WM_TRANSIENT_FOR is set.
func (c *Connection) IsTransient(windowID xproto.Window) bool {
	parent, err := icccm.WmTransientForGet(c.XUtil, windowID)
	return err == nil && parent != 0
}

// WindowPID returns _NET_WM_PID or 0.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// GetActiveWindow returns _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// FindWindowByClass searches the client list for a window whose WM_CLASS class
// or instance equals class (case-insensitive). Returns the first match.
func (c *Connection) FindWindowByClass(class string) (xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}
	for _, win := range clients {
		instance, wmClass := c.WindowClass(win)
		if strings.EqualFold(wmClass, class) || strings.EqualFold(instance, class) {
			return win, nil
		}
	}
	return 0, fmt.Errorf("no window found with class %q", class)
}

// MapWindow maps a window.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// UnmapWindow unmaps a window.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}
