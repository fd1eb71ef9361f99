package x11

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/intellihide/internal/mainloop"
	"github.com/1broseidon/intellihide/internal/signals"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Scheduler mainloop.Scheduler
	// GrabQuiet ends an inferred grab after this long without geometry changes.
	GrabQuiet time.Duration
	Logger    *slog.Logger
}

type geometry struct {
	x, y          int16
	width, height uint16
}

type clientState struct {
	maxHorz bool
	maxVert bool
	hidden  bool
}

func clientStateOf(states []string) clientState {
	horz, vert := MaximizedState(states)
	next := clientState{maxHorz: horz, maxVert: vert}
	for _, state := range states {
		if state == StateHidden {
			next.hidden = true
		}
	}
	return next
}

// Watcher translates X events into the window-system signals consumed by the
// intellihide policy. Display carries grab-op-begin/end, WindowManager carries
// maximize, unmaximize and switch-workspace, Screen carries restacked and
// monitors-changed.
//
// Callbacks run on the xgbutil event goroutine; when the main loop is driven by
// EventLoopPing they are serialized with loop work.
type Watcher struct {
	conn   *Connection
	logger *slog.Logger

	Display       *signals.Emitter
	WindowManager *signals.Emitter
	Screen        *signals.Emitter

	grabs   *grabTracker
	clients map[xproto.Window]clientState
	geoms   map[xproto.Window]geometry
	stopped bool
}

// NewWatcher creates a watcher. Nothing is selected until Start.
func NewWatcher(conn *Connection, opts WatcherOptions) (*Watcher, error) {
	if conn == nil {
		return nil, fmt.Errorf("watcher requires an X connection")
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("watcher requires a scheduler")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		conn:          conn,
		logger:        logger,
		Display:       signals.NewEmitter("display"),
		WindowManager: signals.NewEmitter("window-manager"),
		Screen:        signals.NewEmitter("screen"),
		clients:       make(map[xproto.Window]clientState),
		geoms:         make(map[xproto.Window]geometry),
	}
	w.grabs = newGrabTracker(opts.Scheduler, opts.GrabQuiet,
		func() { w.Display.Emit(signals.GrabOpBegin) },
		func() { w.Display.Emit(signals.GrabOpEnd) },
	)
	return w, nil
}

// Start selects the events the watcher needs and installs the event hook.
func (w *Watcher) Start() error {
	root := xwindow.New(w.conn.XUtil, w.conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskSubstructureNotify); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}
	if err := w.conn.SelectScreenChanges(); err != nil {
		// Monitor hotplug is optional; everything else still works.
		w.logger.Warn("randr screen change events unavailable", "error", err)
	}

	w.syncClients()

	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		if !w.stopped {
			w.handle(event)
		}
		return true
	}).Connect(w.conn.XUtil)
	return nil
}

// Stop makes the watcher ignore further events and cancels the grab timer.
func (w *Watcher) Stop() {
	w.stopped = true
	w.grabs.stop()
}

func (w *Watcher) handle(event interface{}) {
	switch ev := event.(type) {
	case xproto.PropertyNotifyEvent:
		w.handleProperty(ev)
	case xproto.ConfigureNotifyEvent:
		w.handleConfigure(ev)
	case xproto.DestroyNotifyEvent:
		delete(w.clients, ev.Window)
		delete(w.geoms, ev.Window)
		w.Screen.Emit(signals.Restacked)
	case xproto.ClientMessageEvent:
		w.handleClientMessage(ev)
	case randr.ScreenChangeNotifyEvent:
		w.Screen.Emit(signals.MonitorsChanged)
	}
}

func (w *Watcher) handleProperty(ev xproto.PropertyNotifyEvent) {
	name, err := xprop.AtomName(w.conn.XUtil, ev.Atom)
	if err != nil {
		return
	}

	if ev.Window == w.conn.Root {
		switch name {
		case "_NET_CLIENT_LIST_STACKING", "_NET_CLIENT_LIST":
			w.syncClients()
			w.Screen.Emit(signals.Restacked)
		case "_NET_CURRENT_DESKTOP":
			w.WindowManager.Emit(signals.SwitchWorkspace)
		}
		return
	}

	if name != "_NET_WM_STATE" {
		return
	}
	prev, tracked := w.clients[ev.Window]
	if !tracked {
		return
	}
	next := clientStateOf(w.conn.WindowStates(ev.Window))
	w.clients[ev.Window] = next
	wm, restacked := stateTransition(prev, next)
	if wm != "" {
		w.WindowManager.Emit(wm)
	}
	if restacked {
		w.Screen.Emit(signals.Restacked)
	}
}

// stateTransition maps a _NET_WM_STATE change to the window-manager signal it
// implies and reports whether the window was minimized or restored. Window
// managers do not always rewrite the stacking list on minimize, so a hidden
// flip is reported as a restack.
func stateTransition(prev, next clientState) (wm string, restacked bool) {
	return maximizeTransition(prev, next), prev.hidden != next.hidden
}

// maximizeTransition maps a change of maximization flags to a signal.
func maximizeTransition(prev, next clientState) string {
	if prev.maxHorz == next.maxHorz && prev.maxVert == next.maxVert {
		return ""
	}
	if (next.maxHorz && !prev.maxHorz) || (next.maxVert && !prev.maxVert) {
		return signals.Maximize
	}
	return signals.Unmaximize
}

func (w *Watcher) handleConfigure(ev xproto.ConfigureNotifyEvent) {
	// Only direct children of the root are top-level frames.
	if ev.Event != w.conn.Root || ev.OverrideRedirect {
		return
	}
	next := geometry{x: ev.X, y: ev.Y, width: ev.Width, height: ev.Height}
	prev, known := w.geoms[ev.Window]
	w.geoms[ev.Window] = next
	if known && prev != next {
		w.grabs.motion()
	}
}

func (w *Watcher) handleClientMessage(ev xproto.ClientMessageEvent) {
	if ev.Format != 32 || len(ev.Data.Data32) < 3 {
		return
	}
	name, err := xprop.AtomName(w.conn.XUtil, ev.Type)
	if err != nil || name != "_NET_WM_MOVERESIZE" {
		return
	}
	w.grabs.moveResize(ev.Data.Data32[2])
}

// syncClients listens for property changes on new clients and forgets clients
// that are gone.
func (w *Watcher) syncClients() {
	clients, err := w.conn.StackingOrder()
	if err != nil {
		w.logger.Debug("failed to list clients", "error", err)
		return
	}

	seen := make(map[xproto.Window]struct{}, len(clients))
	for _, id := range clients {
		seen[id] = struct{}{}
		if _, ok := w.clients[id]; ok {
			continue
		}
		if err := xwindow.New(w.conn.XUtil, id).Listen(xproto.EventMaskPropertyChange); err != nil {
			w.logger.Debug("failed to listen on client", "window", fmt.Sprintf("0x%x", uint32(id)), "error", err)
			continue
		}
		w.clients[id] = clientStateOf(w.conn.WindowStates(id))
	}
	for id := range w.clients {
		if _, ok := seen[id]; !ok {
			delete(w.clients, id)
		}
	}
}
