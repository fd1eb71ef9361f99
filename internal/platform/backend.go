package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Box describes a region by its corners. X2/Y2 are exclusive.
type Box struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Box converts the rectangle to corner form.
func (r Rect) Box() Box {
	return Box{X1: r.X, Y1: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height}
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// OverlapsBox reports whether r strictly intersects b. Touching edges do not
// count as overlap.
func (r Rect) OverlapsBox(b Box) bool {
	return r.X < b.X2 &&
		r.X+r.Width > b.X1 &&
		r.Y < b.Y2 &&
		r.Y+r.Height > b.Y1
}

// Overlaps reports whether two rectangles strictly intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.OverlapsBox(o.Box())
}

// Display describes a physical display.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
}

// StickyDesktop is the desktop index reported for windows on all desktops.
const StickyDesktop = -1

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID        WindowID
	PID       int
	Class     string
	Instance  string
	Title     string
	Bounds    Rect     // outer rectangle including decorations
	Types     []string // _NET_WM_WINDOW_TYPE atoms, in preference order
	States    []string // _NET_WM_STATE atoms
	Desktop   int
	Transient bool
}

// HasState reports whether the window carries the given _NET_WM_STATE atom.
func (w Window) HasState(state string) bool {
	for _, s := range w.States {
		if s == state {
			return true
		}
	}
	return false
}

// Backend abstracts window-system operations.
type Backend interface {
	Displays() ([]Display, error)
	ActiveDesktop() (int, error)
	ActiveWindow() (WindowID, error)
	// StackedWindows returns managed windows in bottom-to-top stacking order.
	StackedWindows() ([]Window, error)
	// WindowInfo returns a fresh snapshot of a single window.
	WindowInfo(windowID WindowID) (Window, error)
	WindowBounds(windowID WindowID) (Rect, error)
	FindWindowByClass(class string) (WindowID, error)
	Map(windowID WindowID) error
	Unmap(windowID WindowID) error
}
