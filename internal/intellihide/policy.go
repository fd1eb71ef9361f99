// Package intellihide decides whether a panel should be shown or hidden based
// on whether any interesting window overlaps the panel's region.
//
// A Policy is driven entirely from one goroutine: signal handlers and
// scheduler callbacks must all run on the daemon's main loop.
package intellihide

import (
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/intellihide/internal/mainloop"
	"github.com/1broseidon/intellihide/internal/signals"
)

// DropDownTerminalClass is the WM_CLASS of a drop-down terminal that declares
// a popup-menu type but behaves like a normal window.
const DropDownTerminalClass = "DropDownTerminalWindow"

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSettleDelay  = 200 * time.Millisecond
)

var handledWindowTypes = map[WindowType]struct{}{
	WindowNormal:       {},
	WindowDialog:       {},
	WindowModalDialog:  {},
	WindowToolbar:      {},
	WindowMenu:         {},
	WindowUtility:      {},
	WindowSplashscreen: {},
}

// Sources are the event sources the policy subscribes to.
type Sources struct {
	// Display emits grab-op-begin and grab-op-end.
	Display signals.Source
	// WindowManager emits maximize, unmaximize and switch-workspace.
	WindowManager signals.Source
	// Screen emits restacked and monitors-changed.
	Screen signals.Source
	// Overview emits showing and hiding.
	Overview signals.Source
}

// Options configures a Policy.
type Options struct {
	ShowFunc  func()
	HideFunc  func()
	Target    Target
	Screen    Screen
	Tracker   Tracker
	Scheduler mainloop.Scheduler
	Sources   Sources
	Logger    *slog.Logger

	PollInterval     time.Duration
	SettleDelay      time.Duration
	OnlyActiveWindow bool
}

// Policy is the intellihide state machine.
type Policy struct {
	show    func()
	hide    func()
	target  Target
	screen  Screen
	tracker Tracker
	sched   mainloop.Scheduler
	logger  *slog.Logger

	pollInterval time.Duration

	status           Status
	suspended        bool
	restrictToActive bool
	focusApp         AppID

	pollID   mainloop.SourceID
	settleID mainloop.SourceID
	handler  signals.Handler

	stats     Stats
	destroyed bool
}

// New subscribes the policy to its sources, asserts the shown state and
// schedules one delayed recompute.
func New(opts Options) (*Policy, error) {
	switch {
	case opts.ShowFunc == nil || opts.HideFunc == nil:
		return nil, errors.New("intellihide: show and hide functions are required")
	case opts.Target == nil:
		return nil, errors.New("intellihide: target is required")
	case opts.Screen == nil:
		return nil, errors.New("intellihide: screen is required")
	case opts.Tracker == nil:
		return nil, errors.New("intellihide: tracker is required")
	case opts.Scheduler == nil:
		return nil, errors.New("intellihide: scheduler is required")
	}

	p := &Policy{
		show:             opts.ShowFunc,
		hide:             opts.HideFunc,
		target:           opts.Target,
		screen:           opts.Screen,
		tracker:          opts.Tracker,
		sched:            opts.Scheduler,
		logger:           opts.Logger,
		pollInterval:     opts.PollInterval,
		restrictToActive: opts.OnlyActiveWindow,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.pollInterval <= 0 {
		p.pollInterval = DefaultPollInterval
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	src := opts.Sources
	p.handler.Push(
		signals.Connection{Source: src.Display, Event: signals.GrabOpBegin, Fn: p.grabOpBegin},
		signals.Connection{Source: src.Display, Event: signals.GrabOpEnd, Fn: p.grabOpEnd},
		signals.Connection{Source: src.WindowManager, Event: signals.Maximize, Fn: p.Refresh},
		signals.Connection{Source: src.WindowManager, Event: signals.Unmaximize, Fn: p.Refresh},
		signals.Connection{Source: src.WindowManager, Event: signals.SwitchWorkspace, Fn: p.Refresh},
		signals.Connection{Source: src.Screen, Event: signals.Restacked, Fn: p.Refresh},
		signals.Connection{Source: src.Screen, Event: signals.MonitorsChanged, Fn: p.Refresh},
		signals.Connection{Source: src.Overview, Event: signals.Showing, Fn: p.overviewEnter},
		signals.Connection{Source: src.Overview, Event: signals.Hiding, Fn: p.overviewExit},
	)

	p.setShown(true)

	p.settleID = p.sched.TimeoutAdd(settle, func() bool {
		p.settleID = 0
		p.updateVisibility(false)
		return false
	})
	return p, nil
}

// Destroy disconnects every handler and cancels pending timers. It is safe to
// call more than once.
func (p *Policy) Destroy() {
	p.handler.Disconnect()
	p.cancelPoll()
	if p.settleID != 0 {
		p.sched.SourceRemove(p.settleID)
		p.settleID = 0
	}
	p.destroyed = true
}

// OnlyActiveWindow restricts interesting windows to the focused application.
func (p *Policy) OnlyActiveWindow(active bool) {
	p.restrictToActive = active
}

// Refresh recomputes visibility. Callbacks fire only on a transition.
func (p *Policy) Refresh() {
	if p.destroyed {
		return
	}
	p.updateVisibility(false)
}

// Status returns the currently asserted visibility.
func (p *Policy) Status() Status { return p.status }

// Suspended reports whether an overview suspended the policy.
func (p *Policy) Suspended() bool { return p.suspended }

// RestrictedToActiveWindow reports the only-active-window mode.
func (p *Policy) RestrictedToActiveWindow() bool { return p.restrictToActive }

// FocusApp returns the application cached by the last recompute.
func (p *Policy) FocusApp() (AppID, bool) { return p.focusApp, p.focusApp != "" }

// Polling reports whether a grab poll timer is active.
func (p *Policy) Polling() bool { return p.pollID != 0 }

// Stats returns activity counters.
func (p *Policy) Stats() Stats { return p.stats }

func (p *Policy) grabOpBegin() {
	p.cancelPoll()
	p.pollID = p.sched.TimeoutAdd(p.pollInterval, func() bool {
		p.updateVisibility(false)
		return true
	})
}

func (p *Policy) grabOpEnd() {
	p.cancelPoll()
	p.updateVisibility(false)
}

func (p *Policy) cancelPoll() {
	if p.pollID != 0 {
		p.sched.SourceRemove(p.pollID)
		p.pollID = 0
	}
}

func (p *Policy) overviewEnter() {
	p.suspended = true
}

func (p *Policy) overviewExit() {
	p.suspended = false
	p.status = StatusUnknown
	p.updateVisibility(true)
}

func (p *Policy) updateVisibility(force bool) {
	if p.suspended {
		return
	}
	p.stats.Recomputes++

	if p.anyOverlap() {
		p.setHidden(force)
	} else {
		p.setShown(force)
	}
}

func (p *Policy) anyOverlap() bool {
	actors := p.screen.WindowActors()
	if len(actors) == 0 {
		return false
	}

	p.focusApp = p.resolveFocusApp(actors[len(actors)-1])

	workspace := 0
	if !p.restrictToActive {
		workspace = p.screen.ActiveWorkspace()
	}
	box := p.target.StaticBox()

	for _, actor := range actors {
		win, ok := actor.MetaWindow()
		if !ok || !p.interesting(win, workspace) {
			continue
		}
		if win.OuterRect().OverlapsBox(box) {
			return true
		}
	}
	return false
}

// resolveFocusApp returns the focused application, falling back to the owner
// of the topmost window.
func (p *Policy) resolveFocusApp(top Actor) AppID {
	if app, ok := p.tracker.FocusApp(); ok && app != "" {
		return app
	}
	win, ok := top.MetaWindow()
	if !ok {
		return ""
	}
	if app, ok := p.tracker.WindowApp(win); ok {
		return app
	}
	return ""
}

func (p *Policy) interesting(win Window, activeWorkspace int) bool {
	if !handledWindow(win) {
		return false
	}

	if p.restrictToActive {
		if p.focusApp == "" {
			return false
		}
		app, ok := p.tracker.WindowApp(win)
		return ok && app == p.focusApp
	}

	index, ok := win.Workspace()
	return ok && index == activeWorkspace && win.ShowingOnWorkspace()
}

func handledWindow(win Window) bool {
	if win.WMClass() == DropDownTerminalClass {
		return true
	}
	_, ok := handledWindowTypes[win.Type()]
	return ok
}

func (p *Policy) setShown(force bool) {
	if !force && p.status == StatusShown {
		return
	}
	p.status = StatusShown
	p.stats.Shows++
	p.logger.Debug("intellihide show", "forced", force)
	p.show()
}

func (p *Policy) setHidden(force bool) {
	if !force && p.status == StatusHidden {
		return
	}
	p.status = StatusHidden
	p.stats.Hides++
	p.logger.Debug("intellihide hide", "forced", force)
	p.hide()
}
