//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/intellihide/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display (empty uses DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ActiveDesktop returns the current virtual desktop.
func (b *LinuxBackend) ActiveDesktop() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.GetCurrentDesktop()
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// StackedWindows returns every managed window bottom-to-top. Windows that
// vanish between listing and querying are skipped.
func (b *LinuxBackend) StackedWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.StackingOrder()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		w, err := b.windowInfo(conn, windowID)
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// WindowInfo returns a fresh snapshot of a single window.
func (b *LinuxBackend) WindowInfo(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	return b.windowInfo(conn, xproto.Window(windowID))
}

// WindowBounds returns the outer rectangle of a window.
func (b *LinuxBackend) WindowBounds(windowID WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	x, y, w, h, err := conn.OuterRect(xproto.Window(windowID))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: x, Y: y, Width: w, Height: h}, nil
}

// FindWindowByClass returns the first client whose WM_CLASS matches class.
func (b *LinuxBackend) FindWindowByClass(class string) (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	wid, err := conn.FindWindowByClass(class)
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// Map maps a window.
func (b *LinuxBackend) Map(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MapWindow(xproto.Window(windowID))
}

// Unmap unmaps a window.
func (b *LinuxBackend) Unmap(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.UnmapWindow(xproto.Window(windowID))
}

func (b *LinuxBackend) windowInfo(conn *x11.Connection, windowID xproto.Window) (Window, error) {
	x, y, w, h, err := conn.OuterRect(windowID)
	if err != nil {
		return Window{}, fmt.Errorf("window 0x%x: %w", uint32(windowID), err)
	}

	desktop, err := conn.GetWindowDesktop(windowID)
	if err != nil {
		// Windows without _NET_WM_DESKTOP are treated as sticky.
		desktop = StickyDesktop
	}

	instance, class := conn.WindowClass(windowID)
	return Window{
		ID:        WindowID(windowID),
		PID:       conn.WindowPID(windowID),
		Class:     class,
		Instance:  instance,
		Title:     conn.WindowTitle(windowID),
		Bounds:    Rect{X: x, Y: y, Width: w, Height: h},
		Types:     conn.WindowTypes(windowID),
		States:    conn.WindowStates(windowID),
		Desktop:   desktop,
		Transient: conn.IsTransient(windowID),
	}, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
