package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/intellihide/internal/config"
	"github.com/1broseidon/intellihide/internal/desktop"
	"github.com/1broseidon/intellihide/internal/dock"
	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/mainloop"
	"github.com/1broseidon/intellihide/internal/platform"
	"github.com/google/go-cmp/cmp"
)

type fakeBackend struct {
	windows  []platform.Window
	active   platform.WindowID
	classes  map[string]platform.WindowID
	displays []platform.Display
}

func (b *fakeBackend) Displays() ([]platform.Display, error) {
	if b.displays == nil {
		return nil, errors.New("randr unavailable")
	}
	return b.displays, nil
}

func (b *fakeBackend) ActiveDesktop() (int, error) { return 0, nil }

func (b *fakeBackend) ActiveWindow() (platform.WindowID, error) { return b.active, nil }

func (b *fakeBackend) StackedWindows() ([]platform.Window, error) { return b.windows, nil }

func (b *fakeBackend) WindowInfo(id platform.WindowID) (platform.Window, error) {
	for _, w := range b.windows {
		if w.ID == id {
			return w, nil
		}
	}
	return platform.Window{}, errors.New("no such window")
}

func (b *fakeBackend) WindowBounds(id platform.WindowID) (platform.Rect, error) {
	w, err := b.WindowInfo(id)
	return w.Bounds, err
}

func (b *fakeBackend) FindWindowByClass(class string) (platform.WindowID, error) {
	id, ok := b.classes[class]
	if !ok {
		return 0, errors.New("not found")
	}
	return id, nil
}

func (b *fakeBackend) Map(platform.WindowID) error { return nil }

func (b *fakeBackend) Unmap(platform.WindowID) error { return nil }

type recordingPresenter struct {
	mu     sync.Mutex
	events []string
	closed bool
}

func (p *recordingPresenter) Show() { p.record("show") }

func (p *recordingPresenter) Hide() { p.record("hide") }

func (p *recordingPresenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *recordingPresenter) record(ev string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPresenter) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

const (
	firefoxID platform.WindowID = 1
	xtermID   platform.WindowID = 2
)

// overlappingBackend has a maximized browser covering the bottom panel and a
// small terminal in the top-left corner.
func overlappingBackend() *fakeBackend {
	return &fakeBackend{
		windows: []platform.Window{
			{ID: firefoxID, Class: "Firefox", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1060}},
			{ID: xtermID, Class: "XTerm", Bounds: platform.Rect{X: 0, Y: 0, Width: 400, Height: 300}},
		},
		classes: map[string]platform.WindowID{},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Dock.Region = config.Box{X1: 0, Y1: 1040, X2: 1920, Y2: 1080}
	cfg.Intellihide.SettleDelayMS = 5
	return cfg
}

type harness struct {
	d          *Daemon
	backend    *fakeBackend
	presenters []*recordingPresenter
	mu         sync.Mutex
	load       func() (*config.LoadResult, error)
}

func (h *harness) presenter(i int) *recordingPresenter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presenters[i]
}

func (h *harness) presenterCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presenters)
}

func startDaemon(t *testing.T, cfg *config.Config, backend *fakeBackend) *harness {
	t.Helper()
	h := &harness{backend: backend}
	h.load = func() (*config.LoadResult, error) { return nil, errors.New("no reload configured") }

	loop := mainloop.New()
	d, err := newDaemon(cfg, deps{
		backend: backend,
		loop:    loop,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		load:    func() (*config.LoadResult, error) { return h.load() },
		newPresenter: func(cfg *config.Config, _ platform.Backend, _ *desktop.DockLocator, _ *slog.Logger) (dock.Presenter, error) {
			if cfg.Presenter.Mode == config.PresenterCommand {
				return nil, errors.New("commands disabled in tests")
			}
			p := &recordingPresenter{}
			h.mu.Lock()
			h.presenters = append(h.presenters, p)
			h.mu.Unlock()
			return p, nil
		},
	})
	if err != nil {
		t.Fatalf("newDaemon: %v", err)
	}
	h.d = d

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx, mainloop.Ping{})
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func hiddenAfterSettle(t *testing.T, h *harness) {
	t.Helper()
	waitFor(t, "settle recompute", func() bool {
		return h.d.Status().Visibility == intellihide.StatusHidden.String()
	})
}

func TestDaemon_SettleHidesOverlappedDock(t *testing.T) {
	h := startDaemon(t, testConfig(), overlappingBackend())
	hiddenAfterSettle(t, h)

	if diff := cmp.Diff([]string{"show", "hide"}, h.presenter(0).Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	status := h.d.Status()
	if status.Hides != 1 || status.Shows != 1 {
		t.Fatalf("unexpected stats %+v", status)
	}
	if status.FocusApp != "xterm" {
		t.Fatalf("expected the topmost window's app, got %q", status.FocusApp)
	}
	if status.PresenterMode != "map" || status.DockClass != config.DefaultDockClass {
		t.Fatalf("unexpected presenter info %+v", status)
	}
}

func TestDaemon_SuspendResume(t *testing.T) {
	h := startDaemon(t, testConfig(), overlappingBackend())
	hiddenAfterSettle(t, h)

	if err := h.d.Suspend(); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := h.d.Suspend(); err != nil {
		t.Fatalf("second suspend: %v", err)
	}
	status := h.d.Status()
	if !status.Suspended {
		t.Fatalf("expected suspended")
	}
	if status.Visibility != intellihide.StatusShown.String() {
		t.Fatalf("a suspended dock is shown, got %s", status.Visibility)
	}
	if diff := cmp.Diff([]string{"show", "hide", "show"}, h.presenter(0).Events()); diff != "" {
		t.Fatalf("suspend must show the dock once (-want +got):\n%s", diff)
	}

	if err := h.d.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := h.d.Resume(); err != nil {
		t.Fatalf("second resume: %v", err)
	}
	status = h.d.Status()
	if status.Suspended {
		t.Fatalf("expected resumed")
	}
	if status.Visibility != intellihide.StatusHidden.String() {
		t.Fatalf("resume must report the policy decision, got %s", status.Visibility)
	}
	if diff := cmp.Diff([]string{"show", "hide", "show", "hide"}, h.presenter(0).Events()); diff != "" {
		t.Fatalf("resume must force one decision (-want +got):\n%s", diff)
	}
}

func TestDaemon_OnlyActiveWindow(t *testing.T) {
	backend := overlappingBackend()
	backend.active = xtermID
	h := startDaemon(t, testConfig(), backend)
	hiddenAfterSettle(t, h)

	if err := h.d.SetOnlyActive(true); err != nil {
		t.Fatalf("set only-active: %v", err)
	}
	status := h.d.Status()
	if status.Visibility != intellihide.StatusShown.String() {
		t.Fatalf("the focused terminal does not cover the dock, got %s", status.Visibility)
	}
	if !status.RestrictedToActiveWindow || status.OnlyActiveWindow {
		t.Fatalf("runtime toggle must not rewrite the configured value: %+v", status)
	}

	// The hotkey toggles back.
	if err := h.d.call(h.d.toggleOnlyActive); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := h.d.Status().Visibility; got != intellihide.StatusHidden.String() {
		t.Fatalf("expected hidden after toggling back, got %s", got)
	}
}

func TestDaemon_ReloadAppliesConfig(t *testing.T) {
	backend := overlappingBackend()
	backend.active = xtermID
	cfg := testConfig()
	h := startDaemon(t, cfg, backend)
	hiddenAfterSettle(t, h)

	next := *cfg
	next.LogLevel = "debug"
	next.Presenter.Mode = config.PresenterLog
	next.Intellihide.OnlyActiveWindow = true
	next.Intellihide.PollIntervalMS = 250
	var loaded *config.LoadResult
	h.d.onLoaded = func(res *config.LoadResult) { loaded = res }
	h.load = func() (*config.LoadResult, error) {
		return &config.LoadResult{Config: &next, Files: []string{"/tmp/config.yaml"}}, nil
	}

	if err := h.d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h.presenterCount() != 2 {
		t.Fatalf("expected a new presenter, got %d", h.presenterCount())
	}
	old := h.presenter(0)
	if diff := cmp.Diff([]string{"show", "hide", "show"}, old.Events()); diff != "" || !old.closed {
		t.Fatalf("old presenter must restore the dock and close (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hide", "show"}, h.presenter(1).Events()); diff != "" {
		t.Fatalf("new presenter events mismatch (-want +got):\n%s", diff)
	}

	status := h.d.Status()
	if !status.OnlyActiveWindow || !status.RestrictedToActiveWindow || status.PresenterMode != "log" {
		t.Fatalf("config not applied: %+v", status)
	}
	if h.d.level.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", h.d.level.Level())
	}
	if loaded == nil || len(loaded.Files) != 1 {
		t.Fatalf("expected onLoaded to receive the result")
	}

	// Unchanged config is a no-op.
	if err := h.d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h.presenterCount() != 2 {
		t.Fatalf("unchanged config must not rebuild the presenter")
	}
}

func TestDaemon_ReloadRejectsBadConfig(t *testing.T) {
	h := startDaemon(t, testConfig(), overlappingBackend())
	hiddenAfterSettle(t, h)

	h.load = func() (*config.LoadResult, error) {
		return nil, &config.ValidationError{Path: "dock.class", Err: errors.New("required")}
	}
	if err := h.d.Reload(); err == nil {
		t.Fatalf("expected load error")
	}

	bad := *testConfig()
	bad.Presenter = config.PresenterConfig{Mode: config.PresenterCommand, ShowCommand: "true"}
	h.load = func() (*config.LoadResult, error) { return &config.LoadResult{Config: &bad}, nil }
	if err := h.d.Reload(); err == nil {
		t.Fatalf("expected presenter error")
	}

	if got := h.d.Status().PresenterMode; got != "map" {
		t.Fatalf("rejected config must keep the running one, got %s", got)
	}
	if h.presenterCount() != 1 {
		t.Fatalf("presenter must not change")
	}
}

func TestDaemon_ReconcileDockRestart(t *testing.T) {
	backend := overlappingBackend()
	backend.classes["Polybar"] = 9
	h := startDaemon(t, testConfig(), backend)
	hiddenAfterSettle(t, h)

	if err := h.d.call(h.d.reconcileDock); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if diff := cmp.Diff([]string{"show", "hide", "hide"}, h.presenter(0).Events()); diff != "" {
		t.Fatalf("new dock window must be hidden again (-want +got):\n%s", diff)
	}

	if err := h.d.call(h.d.reconcileDock); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := len(h.presenter(0).Events()); got != 3 {
		t.Fatalf("unchanged dock must not be touched, got %d events", got)
	}
}

func TestDaemon_Monitors(t *testing.T) {
	backend := overlappingBackend()
	h := startDaemon(t, testConfig(), backend)

	if _, err := h.d.Monitors(); err == nil {
		t.Fatalf("expected randr error")
	}

	if err := h.d.call(func() {
		backend.displays = []platform.Display{{ID: 1, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}}}
	}); err != nil {
		t.Fatalf("call: %v", err)
	}
	monitors, err := h.d.Monitors()
	if err != nil {
		t.Fatalf("monitors: %v", err)
	}
	if len(monitors) != 1 || monitors[0].Name != "HDMI-1" || monitors[0].X != 1920 {
		t.Fatalf("unexpected monitors %+v", monitors)
	}
}

func TestRestartOnly(t *testing.T) {
	prev := config.DefaultConfig()
	next := *prev
	next.Display = ":1"
	next.Intellihide.GrabQuietMS = 500
	next.Intellihide.OnlyActiveWindow = true

	want := []string{"display", "intellihide.grab_quiet_ms"}
	if diff := cmp.Diff(want, restartOnly(prev, &next)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestReconciler_RecoversFromPanic(t *testing.T) {
	calls := 0
	r := NewReconciler(ReconcilerConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, func() {
		calls++
		panic("boom")
	})
	r.reconcile()
	r.reconcile()
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if r.interval != DefaultReconcileInterval {
		t.Fatalf("expected default interval, got %s", r.interval)
	}
}

func TestConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.MkdirAll(filepath.Join(dir, "config.d"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cw, err := newConfigWatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer cw.Close()
	cw.debounce = 50 * time.Millisecond
	cw.Track(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requests := make(chan string, 1)
	go cw.Run(ctx, requests)

	expect := func(what string, want bool) {
		t.Helper()
		select {
		case <-requests:
			if !want {
				t.Fatalf("unexpected reload request after %s", what)
			}
		case <-time.After(300 * time.Millisecond):
			if want {
				t.Fatalf("expected reload request after %s", what)
			}
		}
	}

	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	expect("main file write", true)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	expect("unrelated file write", false)

	if err := os.WriteFile(filepath.Join(dir, "config.d", "10-dock.yaml"), []byte("dock:\n  class: Tint2\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	expect("drop-in write", true)
}
