package desktop

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/platform"
)

// DockLocator finds the dock window by WM_CLASS and remembers it. Docks often
// leave the client list while unmapped, so the remembered ID is kept until a
// query against it fails.
type DockLocator struct {
	backend platform.Backend
	class   string
	id      platform.WindowID
}

// NewDockLocator creates a locator for class.
func NewDockLocator(backend platform.Backend, class string) *DockLocator {
	return &DockLocator{backend: backend, class: class}
}

// Class returns the WM_CLASS being located.
func (l *DockLocator) Class() string { return l.class }

// SetClass changes the class and forgets the remembered window.
func (l *DockLocator) SetClass(class string) {
	if class == l.class {
		return
	}
	l.class = class
	l.id = 0
}

// Window returns the dock window ID.
func (l *DockLocator) Window() (platform.WindowID, error) {
	if l.id != 0 {
		return l.id, nil
	}
	if l.class == "" {
		return 0, fmt.Errorf("no dock class configured")
	}
	id, err := l.backend.FindWindowByClass(l.class)
	if err != nil {
		return 0, err
	}
	l.id = id
	return id, nil
}

// Rescan looks the class up again and reports whether it now resolves to a
// different window than the remembered one. A failed lookup keeps the
// remembered window.
func (l *DockLocator) Rescan() (bool, error) {
	if l.class == "" {
		return false, fmt.Errorf("no dock class configured")
	}
	id, err := l.backend.FindWindowByClass(l.class)
	if err != nil {
		return false, err
	}
	changed := id != l.id
	l.id = id
	return changed, nil
}

// Forget drops the remembered window so the next lookup searches again.
func (l *DockLocator) Forget() {
	l.id = 0
}

// Target provides the dock region. A configured static region wins over the
// dock window's geometry.
type Target struct {
	locator *DockLocator
	region  platform.Box
	last    platform.Box
	logger  *slog.Logger
}

var _ intellihide.Target = (*Target)(nil)

// NewTarget creates a Target. Either locator or region may be empty.
func NewTarget(locator *DockLocator, region platform.Box, logger *slog.Logger) *Target {
	if logger == nil {
		logger = slog.Default()
	}
	return &Target{locator: locator, region: region, logger: logger}
}

// SetRegion replaces the static region. An empty box falls back to the dock
// window.
func (t *Target) SetRegion(region platform.Box) {
	t.region = region
}

// Reset forgets the last known dock region.
func (t *Target) Reset() {
	t.last = platform.Box{}
}

// StaticBox returns the region the panel occupies. When the dock cannot be
// queried the last known region is returned; with none known the box is empty
// and nothing overlaps it.
func (t *Target) StaticBox() platform.Box {
	if !t.region.Empty() {
		return t.region
	}
	if t.locator == nil {
		return platform.Box{}
	}

	for attempt := 0; attempt < 2; attempt++ {
		id, err := t.locator.Window()
		if err != nil {
			t.logger.Debug("dock window not found", "class", t.locator.Class(), "error", err)
			return t.last
		}
		bounds, err := t.locator.backend.WindowBounds(id)
		if err != nil {
			t.locator.Forget()
			continue
		}
		t.last = bounds.Box()
		return t.last
	}
	return t.last
}
