package intellihide

import (
	"testing"
	"time"

	"github.com/1broseidon/intellihide/internal/mainloop"
	"github.com/1broseidon/intellihide/internal/platform"
	"github.com/1broseidon/intellihide/internal/signals"
)

type fakeWindow struct {
	rect      platform.Rect
	wtype     WindowType
	workspace int
	noSpace   bool
	hidden    bool
	class     string
	app       AppID
}

func (w *fakeWindow) OuterRect() platform.Rect    { return w.rect }
func (w *fakeWindow) Type() WindowType            { return w.wtype }
func (w *fakeWindow) Workspace() (int, bool)      { return w.workspace, !w.noSpace }
func (w *fakeWindow) ShowingOnWorkspace() bool    { return !w.hidden }
func (w *fakeWindow) MaximizedHorizontally() bool { return false }
func (w *fakeWindow) MaximizedVertically() bool   { return false }
func (w *fakeWindow) WMClass() string             { return w.class }

type fakeActor struct {
	win *fakeWindow
}

func (a fakeActor) MetaWindow() (Window, bool) {
	if a.win == nil {
		return nil, false
	}
	return a.win, true
}

type fakeScreen struct {
	windows   []*fakeWindow
	dangling  int
	workspace int
}

func (s *fakeScreen) WindowActors() []Actor {
	actors := make([]Actor, 0, len(s.windows)+s.dangling)
	for i := 0; i < s.dangling; i++ {
		actors = append(actors, fakeActor{})
	}
	for _, w := range s.windows {
		actors = append(actors, fakeActor{win: w})
	}
	return actors
}

func (s *fakeScreen) ActiveWorkspace() int { return s.workspace }

type fakeTracker struct {
	focus AppID
}

func (t *fakeTracker) FocusApp() (AppID, bool) { return t.focus, t.focus != "" }

func (t *fakeTracker) WindowApp(w Window) (AppID, bool) {
	fw, ok := w.(*fakeWindow)
	if !ok || fw.app == "" {
		return "", false
	}
	return fw.app, true
}

type fakeTarget struct {
	box platform.Box
}

func (t *fakeTarget) StaticBox() platform.Box { return t.box }

type fakeScheduler struct {
	next    mainloop.SourceID
	pending map[mainloop.SourceID]func() bool
}

func (s *fakeScheduler) TimeoutAdd(_ time.Duration, fn func() bool) mainloop.SourceID {
	if s.pending == nil {
		s.pending = make(map[mainloop.SourceID]func() bool)
	}
	s.next++
	s.pending[s.next] = fn
	return s.next
}

func (s *fakeScheduler) SourceRemove(id mainloop.SourceID) bool {
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	return true
}

// fire runs a pending timeout as the loop would.
func (s *fakeScheduler) fire(t *testing.T, id mainloop.SourceID) {
	t.Helper()
	fn, ok := s.pending[id]
	if !ok {
		t.Fatalf("timeout %d is not pending", id)
	}
	if !fn() {
		delete(s.pending, id)
	}
}

type harness struct {
	policy  *Policy
	screen  *fakeScreen
	tracker *fakeTracker
	target  *fakeTarget
	sched   *fakeScheduler

	display  *signals.Emitter
	wm       *signals.Emitter
	screenEm *signals.Emitter
	overview *signals.Emitter

	shows int
	hides int
}

func newHarness(t *testing.T, windows ...*fakeWindow) *harness {
	t.Helper()
	h := &harness{
		screen:   &fakeScreen{windows: windows},
		tracker:  &fakeTracker{},
		target:   &fakeTarget{box: platform.Box{X1: 0, Y1: 0, X2: 100, Y2: 50}},
		sched:    &fakeScheduler{},
		display:  signals.NewEmitter("display"),
		wm:       signals.NewEmitter("wm"),
		screenEm: signals.NewEmitter("screen"),
		overview: signals.NewEmitter("overview"),
	}
	p, err := New(Options{
		ShowFunc:  func() { h.shows++ },
		HideFunc:  func() { h.hides++ },
		Target:    h.target,
		Screen:    h.screen,
		Tracker:   h.tracker,
		Scheduler: h.sched,
		Sources: Sources{
			Display:       h.display,
			WindowManager: h.wm,
			Screen:        h.screenEm,
			Overview:      h.overview,
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.policy = p
	t.Cleanup(p.Destroy)
	return h
}

// settle fires the construction settle timeout.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	if h.policy.settleID == 0 {
		t.Fatalf("expected a pending settle timeout")
	}
	h.sched.fire(t, h.policy.settleID)
}

func (h *harness) reset() {
	h.shows, h.hides = 0, 0
}

func normalAt(x, y, w, hgt int) *fakeWindow {
	return &fakeWindow{rect: platform.Rect{X: x, Y: y, Width: w, Height: hgt}, wtype: WindowNormal, app: "app.normal"}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	base := Options{
		ShowFunc:  func() {},
		HideFunc:  func() {},
		Target:    &fakeTarget{},
		Screen:    &fakeScreen{},
		Tracker:   &fakeTracker{},
		Scheduler: &fakeScheduler{},
	}
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "show", mutate: func(o *Options) { o.ShowFunc = nil }},
		{name: "hide", mutate: func(o *Options) { o.HideFunc = nil }},
		{name: "target", mutate: func(o *Options) { o.Target = nil }},
		{name: "screen", mutate: func(o *Options) { o.Screen = nil }},
		{name: "tracker", mutate: func(o *Options) { o.Tracker = nil }},
		{name: "scheduler", mutate: func(o *Options) { o.Scheduler = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)
			if _, err := New(opts); err == nil {
				t.Fatalf("expected error when %s is missing", tt.name)
			}
		})
	}
}

func TestNew_ForcesShowAndSchedulesSettle(t *testing.T) {
	h := newHarness(t, normalAt(10, 10, 20, 20))

	if h.shows != 1 || h.hides != 0 {
		t.Fatalf("expected one forced show at construction, got shows=%d hides=%d", h.shows, h.hides)
	}
	if h.policy.Status() != StatusShown {
		t.Fatalf("expected shown, got %s", h.policy.Status())
	}
	if len(h.sched.pending) != 1 {
		t.Fatalf("expected exactly one settle timeout, got %d", len(h.sched.pending))
	}

	h.settle(t)
	if h.hides != 1 {
		t.Fatalf("settle recompute should hide for an overlapping window, hides=%d", h.hides)
	}
	if len(h.sched.pending) != 0 {
		t.Fatalf("settle timeout must be one-shot")
	}
}

func TestScenario_MoveWindowAway(t *testing.T) {
	win := normalAt(10, 10, 20, 20)
	h := newHarness(t, win)
	h.settle(t)
	if h.policy.Status() != StatusHidden {
		t.Fatalf("expected hidden, got %s", h.policy.Status())
	}

	win.rect = platform.Rect{X: 200, Y: 200, Width: 20, Height: 20}
	h.screenEm.Emit(signals.Restacked)
	if h.policy.Status() != StatusShown {
		t.Fatalf("expected shown after moving away, got %s", h.policy.Status())
	}
}

func TestScenario_NonInterestingWindowDoesNotHide(t *testing.T) {
	interesting := normalAt(10, 10, 20, 20)
	dock := &fakeWindow{rect: platform.Rect{X: 0, Y: 0, Width: 100, Height: 50}, wtype: WindowDock}
	h := newHarness(t, dock, interesting)
	h.settle(t)
	if h.policy.Status() != StatusHidden {
		t.Fatalf("expected hidden with an interesting overlap, got %s", h.policy.Status())
	}

	h.screen.windows = []*fakeWindow{dock}
	h.screenEm.Emit(signals.Restacked)
	if h.policy.Status() != StatusShown {
		t.Fatalf("expected shown once only the dock overlaps, got %s", h.policy.Status())
	}
}

func TestScenario_RestrictToActiveWindow(t *testing.T) {
	other := normalAt(10, 10, 20, 20)
	other.app = "app.other"
	focused := normalAt(500, 500, 20, 20)
	focused.app = "app.focused"

	h := newHarness(t, other, focused)
	h.tracker.focus = "app.focused"
	h.policy.OnlyActiveWindow(true)
	h.settle(t)

	if h.policy.Status() != StatusShown {
		t.Fatalf("overlapping window of another app must be ignored, got %s", h.policy.Status())
	}
	if app, ok := h.policy.FocusApp(); !ok || app != "app.focused" {
		t.Fatalf("expected cached focus app, got %q/%v", app, ok)
	}

	focused.rect = platform.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	h.policy.Refresh()
	if h.policy.Status() != StatusHidden {
		t.Fatalf("focused app window overlaps, expected hidden")
	}
}

func TestRestrictToActiveWindow_IgnoresWorkspace(t *testing.T) {
	win := normalAt(10, 10, 20, 20)
	win.workspace = 3
	win.hidden = true
	h := newHarness(t, win)
	h.tracker.focus = win.app
	h.policy.OnlyActiveWindow(true)
	h.settle(t)

	if h.policy.Status() != StatusHidden {
		t.Fatalf("restricted mode applies no workspace check, got %s", h.policy.Status())
	}
}

func TestRestrictToActiveWindow_NoFocusExcludesEverything(t *testing.T) {
	top := normalAt(10, 10, 20, 20)
	top.app = ""
	h := newHarness(t, top)
	h.policy.OnlyActiveWindow(true)
	h.settle(t)

	if _, ok := h.policy.FocusApp(); ok {
		t.Fatalf("expected no focus app")
	}
	if h.policy.Status() != StatusShown {
		t.Fatalf("no focused app must exclude every window, got %s", h.policy.Status())
	}
}

func TestFocusApp_FallsBackToTopmostWindow(t *testing.T) {
	bottom := normalAt(500, 500, 10, 10)
	bottom.app = "app.bottom"
	top := normalAt(10, 10, 20, 20)
	top.app = "app.top"
	h := newHarness(t, bottom, top)
	h.policy.OnlyActiveWindow(true)
	h.settle(t)

	if app, _ := h.policy.FocusApp(); app != "app.top" {
		t.Fatalf("expected topmost window's app, got %q", app)
	}
	if h.policy.Status() != StatusHidden {
		t.Fatalf("topmost app window overlaps, expected hidden")
	}
}

func TestFocusApp_DanglingTopActor(t *testing.T) {
	h := newHarness(t)
	h.screen.dangling = 1
	h.policy.OnlyActiveWindow(true)
	h.settle(t)

	if _, ok := h.policy.FocusApp(); ok {
		t.Fatalf("an unresolvable top actor yields no focus app")
	}
	if h.policy.Status() != StatusShown {
		t.Fatalf("expected shown, got %s", h.policy.Status())
	}
}

func TestEdgeTriggering(t *testing.T) {
	win := normalAt(500, 500, 10, 10)
	h := newHarness(t, win)
	h.settle(t)
	h.reset()

	for i := 0; i < 3; i++ {
		h.wm.Emit(signals.Maximize)
	}
	if h.shows != 0 {
		t.Fatalf("repeated show decisions must not fire, got %d", h.shows)
	}

	win.rect = platform.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	h.wm.Emit(signals.Unmaximize)
	h.wm.Emit(signals.SwitchWorkspace)
	h.screenEm.Emit(signals.MonitorsChanged)
	if h.hides != 1 {
		t.Fatalf("expected exactly one hide on transition, got %d", h.hides)
	}

	win.rect = platform.Rect{X: 500, Y: 500, Width: 10, Height: 10}
	h.screenEm.Emit(signals.Restacked)
	h.screenEm.Emit(signals.Restacked)
	if h.shows != 1 {
		t.Fatalf("expected exactly one show on transition, got %d", h.shows)
	}
}

func TestNoWindowsShows(t *testing.T) {
	h := newHarness(t)
	h.settle(t)
	if h.policy.Status() != StatusShown || h.hides != 0 {
		t.Fatalf("no windows means no overlap")
	}
}

func TestSuspension(t *testing.T) {
	win := normalAt(10, 10, 20, 20)
	h := newHarness(t, win)
	h.settle(t)
	if h.policy.Status() != StatusHidden {
		t.Fatalf("expected hidden before overview")
	}

	h.overview.Emit(signals.Showing)
	if !h.policy.Suspended() {
		t.Fatalf("expected suspended")
	}
	h.reset()
	before := h.policy.Stats().Recomputes

	win.rect = platform.Rect{X: 500, Y: 500, Width: 10, Height: 10}
	h.screenEm.Emit(signals.Restacked)
	h.wm.Emit(signals.Maximize)
	h.display.Emit(signals.GrabOpBegin)
	h.sched.fire(t, h.policy.pollID)
	h.display.Emit(signals.GrabOpEnd)
	win.rect = platform.Rect{X: 10, Y: 10, Width: 20, Height: 20}
	h.screenEm.Emit(signals.MonitorsChanged)

	if h.shows != 0 || h.hides != 0 {
		t.Fatalf("suspended policy fired callbacks: shows=%d hides=%d", h.shows, h.hides)
	}
	if got := h.policy.Stats().Recomputes; got != before {
		t.Fatalf("suspended policy recomputed %d times", got-before)
	}

	// The decision is unchanged (still hidden) but exit must assert it.
	h.overview.Emit(signals.Hiding)
	if h.policy.Suspended() {
		t.Fatalf("expected resumed")
	}
	if h.hides != 1 || h.shows != 0 {
		t.Fatalf("overview exit must force exactly one callback, shows=%d hides=%d", h.shows, h.hides)
	}
	if h.policy.Status() != StatusHidden {
		t.Fatalf("expected hidden after overview exit")
	}
}

func TestGrabLifecycle(t *testing.T) {
	win := normalAt(500, 500, 10, 10)
	h := newHarness(t, win)
	h.settle(t)
	h.reset()

	recomputes := h.policy.Stats().Recomputes
	h.display.Emit(signals.GrabOpBegin)
	if !h.policy.Polling() {
		t.Fatalf("expected polling after grab begin")
	}
	if h.policy.Stats().Recomputes != recomputes {
		t.Fatalf("grab begin must not recompute synchronously")
	}
	first := h.policy.pollID

	h.display.Emit(signals.GrabOpBegin)
	if len(h.sched.pending) != 1 {
		t.Fatalf("expected exactly one poll timer, got %d", len(h.sched.pending))
	}
	if _, ok := h.sched.pending[first]; ok {
		t.Fatalf("previous poll timer must be cancelled")
	}

	// Dragging into the region hides on the next poll tick.
	win.rect = platform.Rect{X: 50, Y: 40, Width: 10, Height: 10}
	h.sched.fire(t, h.policy.pollID)
	if h.hides != 1 {
		t.Fatalf("expected poll to hide, hides=%d", h.hides)
	}
	if !h.policy.Polling() {
		t.Fatalf("poll timer must repeat")
	}

	recomputes = h.policy.Stats().Recomputes
	h.display.Emit(signals.GrabOpEnd)
	if h.policy.Polling() || len(h.sched.pending) != 0 {
		t.Fatalf("grab end must leave zero timers")
	}
	if got := h.policy.Stats().Recomputes - recomputes; got != 1 {
		t.Fatalf("grab end must recompute exactly once, got %d", got)
	}

	// A second end with no timer is harmless.
	h.display.Emit(signals.GrabOpEnd)
}

func TestClassification(t *testing.T) {
	h := newHarness(t)
	h.screen.workspace = 1

	tests := []struct {
		name string
		win  *fakeWindow
		want bool
	}{
		{name: "normal", win: &fakeWindow{wtype: WindowNormal, workspace: 1}, want: true},
		{name: "dialog", win: &fakeWindow{wtype: WindowDialog, workspace: 1}, want: true},
		{name: "modal dialog", win: &fakeWindow{wtype: WindowModalDialog, workspace: 1}, want: true},
		{name: "toolbar", win: &fakeWindow{wtype: WindowToolbar, workspace: 1}, want: true},
		{name: "menu", win: &fakeWindow{wtype: WindowMenu, workspace: 1}, want: true},
		{name: "utility", win: &fakeWindow{wtype: WindowUtility, workspace: 1}, want: true},
		{name: "splash", win: &fakeWindow{wtype: WindowSplashscreen, workspace: 1}, want: true},
		{name: "dock", win: &fakeWindow{wtype: WindowDock, workspace: 1}, want: false},
		{name: "desktop", win: &fakeWindow{wtype: WindowDesktop, workspace: 1}, want: false},
		{name: "popup menu", win: &fakeWindow{wtype: WindowPopupMenu, workspace: 1}, want: false},
		{name: "tooltip", win: &fakeWindow{wtype: WindowTooltip, workspace: 1}, want: false},
		{name: "drop-down terminal", win: &fakeWindow{wtype: WindowPopupMenu, workspace: 1, class: DropDownTerminalClass}, want: true},
		{name: "other workspace", win: &fakeWindow{wtype: WindowNormal, workspace: 2}, want: false},
		{name: "no workspace", win: &fakeWindow{wtype: WindowNormal, noSpace: true}, want: false},
		{name: "minimized", win: &fakeWindow{wtype: WindowNormal, workspace: 1, hidden: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.policy.interesting(tt.win, 1); got != tt.want {
				t.Fatalf("interesting = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassification_DockAndDesktopNeverInteresting(t *testing.T) {
	for _, wtype := range []WindowType{WindowDock, WindowDesktop} {
		for _, restrict := range []bool{false, true} {
			win := &fakeWindow{
				rect:  platform.Rect{X: 0, Y: 0, Width: 100, Height: 50},
				wtype: wtype,
				app:   "app",
			}
			h := newHarness(t, win)
			h.tracker.focus = "app"
			h.policy.OnlyActiveWindow(restrict)
			h.settle(t)
			if h.policy.Status() != StatusShown {
				t.Fatalf("%s window (restricted=%v) must never hide the panel", wtype, restrict)
			}
		}
	}
}

func TestDanglingActorsAreSkipped(t *testing.T) {
	h := newHarness(t, normalAt(500, 500, 10, 10))
	h.screen.dangling = 3
	h.settle(t)
	if h.policy.Status() != StatusShown {
		t.Fatalf("expected shown, got %s", h.policy.Status())
	}
}

func TestTargetReadFreshEachRecompute(t *testing.T) {
	h := newHarness(t, normalAt(500, 500, 10, 10))
	h.settle(t)

	h.target.box = platform.Box{X1: 400, Y1: 400, X2: 600, Y2: 600}
	if h.policy.Status() != StatusShown {
		t.Fatalf("target change alone must not trigger a recompute")
	}
	h.screenEm.Emit(signals.Restacked)
	if h.policy.Status() != StatusHidden {
		t.Fatalf("next recompute must read the new target box")
	}
}

func TestDestroy(t *testing.T) {
	h := newHarness(t, normalAt(10, 10, 20, 20))
	h.display.Emit(signals.GrabOpBegin)

	h.policy.Destroy()
	h.policy.Destroy()

	if len(h.sched.pending) != 0 {
		t.Fatalf("destroy must cancel the settle and poll timeouts, %d left", len(h.sched.pending))
	}
	for _, em := range []*signals.Emitter{h.display, h.wm, h.screenEm, h.overview} {
		for _, ev := range []string{
			signals.GrabOpBegin, signals.GrabOpEnd, signals.Maximize, signals.Unmaximize,
			signals.SwitchWorkspace, signals.Restacked, signals.MonitorsChanged,
			signals.Showing, signals.Hiding,
		} {
			if n := em.HandlerCount(ev); n != 0 {
				t.Fatalf("%s still has %d %q handlers", em, n, ev)
			}
		}
	}

	h.reset()
	h.policy.Refresh()
	if h.shows != 0 || h.hides != 0 {
		t.Fatalf("destroyed policy must not fire callbacks")
	}
}

func TestOverlapsProperties(t *testing.T) {
	rects := []platform.Rect{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: 100, Y: 0, Width: 10, Height: 10},
		{X: 99, Y: 49, Width: 10, Height: 10},
		{X: 0, Y: 50, Width: 100, Height: 1},
		{X: -20, Y: -20, Width: 21, Height: 21},
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 200, Y: 200, Width: 20, Height: 20},
	}
	for _, a := range rects {
		for _, b := range rects {
			if a.Overlaps(b) != b.Overlaps(a) {
				t.Fatalf("overlap not symmetric for %+v and %+v", a, b)
			}
		}
	}

	target := platform.Box{X1: 0, Y1: 0, X2: 100, Y2: 50}
	edges := []platform.Rect{
		{X: 100, Y: 0, Width: 10, Height: 10},  // left edge touches x2
		{X: -10, Y: 0, Width: 10, Height: 10},  // right edge touches x1
		{X: 0, Y: 50, Width: 10, Height: 10},   // top edge touches y2
		{X: 0, Y: -10, Width: 10, Height: 10},  // bottom edge touches y1
		{X: 100, Y: 50, Width: 10, Height: 10}, // corner
	}
	for _, r := range edges {
		if r.OverlapsBox(target) {
			t.Fatalf("touching rectangle %+v must not overlap", r)
		}
	}
	if !(platform.Rect{X: 99, Y: 49, Width: 10, Height: 10}).OverlapsBox(target) {
		t.Fatalf("one pixel of overlap must count")
	}
}
