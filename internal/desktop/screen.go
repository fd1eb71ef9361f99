// Package desktop adapts a platform.Backend to the collaborators the
// intellihide policy consumes.
package desktop

import (
	"log/slog"
	"strings"

	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/platform"
)

// Screen lists windows and the active workspace from a backend. Every call
// queries the backend; nothing is cached.
type Screen struct {
	backend platform.Backend
	logger  *slog.Logger
}

var _ intellihide.Screen = (*Screen)(nil)

// NewScreen creates a Screen.
func NewScreen(backend platform.Backend, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screen{backend: backend, logger: logger}
}

// WindowActors returns the managed windows bottom-to-top.
func (s *Screen) WindowActors() []intellihide.Actor {
	windows, err := s.backend.StackedWindows()
	if err != nil {
		s.logger.Debug("failed to list windows", "error", err)
		return nil
	}
	active := s.ActiveWorkspace()

	actors := make([]intellihide.Actor, 0, len(windows))
	for i := range windows {
		actors = append(actors, actor{win: &Window{Window: windows[i], activeDesktop: active}})
	}
	return actors
}

// ActiveWorkspace returns the current desktop, or 0 when it cannot be read.
func (s *Screen) ActiveWorkspace() int {
	desktop, err := s.backend.ActiveDesktop()
	if err != nil {
		s.logger.Debug("failed to read active desktop", "error", err)
		return 0
	}
	return desktop
}

// Tracker identifies applications by WM_CLASS.
type Tracker struct {
	backend platform.Backend
	logger  *slog.Logger
}

var _ intellihide.Tracker = (*Tracker)(nil)

// NewTracker creates a Tracker.
func NewTracker(backend platform.Backend, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{backend: backend, logger: logger}
}

// FocusApp returns the application owning _NET_ACTIVE_WINDOW.
func (t *Tracker) FocusApp() (intellihide.AppID, bool) {
	id, err := t.backend.ActiveWindow()
	if err != nil || id == 0 {
		return "", false
	}
	info, err := t.backend.WindowInfo(id)
	if err != nil {
		t.logger.Debug("failed to query focused window", "window", id, "error", err)
		return "", false
	}
	return appOf(info.Class, info.Instance)
}

// WindowApp returns the application owning w.
func (t *Tracker) WindowApp(w intellihide.Window) (intellihide.AppID, bool) {
	if dw, ok := w.(*Window); ok {
		return appOf(dw.Class, dw.Instance)
	}
	return appOf(w.WMClass(), "")
}

func appOf(class, instance string) (intellihide.AppID, bool) {
	name := strings.TrimSpace(class)
	if name == "" {
		name = strings.TrimSpace(instance)
	}
	if name == "" {
		return "", false
	}
	return intellihide.AppID(strings.ToLower(name)), true
}
