package daemon

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/intellihide/internal/config"
	"github.com/1broseidon/intellihide/internal/dock"
	"github.com/1broseidon/intellihide/internal/hotkeys"
	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/ipc"
	"github.com/1broseidon/intellihide/internal/signals"
)

// call runs fn on the main loop on behalf of another goroutine.
func (d *Daemon) call(fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return d.loop.Call(ctx, fn)
}

// Status implements ipc.Controller.
func (d *Daemon) Status() ipc.StatusData {
	var status ipc.StatusData
	err := d.call(func() { status = d.status() })
	if err != nil {
		return ipc.StatusData{Visibility: intellihide.StatusUnknown.String()}
	}
	return status
}

func (d *Daemon) status() ipc.StatusData {
	stats := d.policy.Stats()
	focus, _ := d.policy.FocusApp()
	visibility := d.policy.Status()
	if d.policy.Suspended() {
		// The dock is forced shown while suspended.
		visibility = intellihide.StatusShown
	}
	return ipc.StatusData{
		Visibility:               visibility.String(),
		Suspended:                d.policy.Suspended(),
		OnlyActiveWindow:         d.cfg.Intellihide.OnlyActiveWindow,
		RestrictedToActiveWindow: d.policy.RestrictedToActiveWindow(),
		Polling:                  d.policy.Polling(),
		FocusApp:                 string(focus),
		DockClass:                d.locator.Class(),
		PresenterMode:            string(d.cfg.Presenter.Mode),
		Recomputes:               stats.Recomputes,
		Shows:                    stats.Shows,
		Hides:                    stats.Hides,
	}
}

// Monitors implements ipc.Controller.
func (d *Daemon) Monitors() ([]ipc.MonitorInfo, error) {
	var (
		monitors []ipc.MonitorInfo
		queryErr error
	)
	err := d.call(func() {
		displays, err := d.backend.Displays()
		if err != nil {
			queryErr = err
			return
		}
		monitors = make([]ipc.MonitorInfo, len(displays))
		for i, disp := range displays {
			monitors[i] = ipc.MonitorInfo{
				ID:     disp.ID,
				Name:   disp.Name,
				X:      disp.Bounds.X,
				Y:      disp.Bounds.Y,
				Width:  disp.Bounds.Width,
				Height: disp.Bounds.Height,
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return monitors, queryErr
}

// Suspend implements ipc.Controller.
func (d *Daemon) Suspend() error {
	return d.call(d.suspend)
}

// Resume implements ipc.Controller.
func (d *Daemon) Resume() error {
	return d.call(d.resume)
}

// SetOnlyActive implements ipc.Controller.
func (d *Daemon) SetOnlyActive(active bool) error {
	return d.call(func() { d.setOnlyActive(active) })
}

// Reload implements ipc.Controller.
func (d *Daemon) Reload() error {
	return d.reload("IPC request")
}

// suspend keeps the dock visible and stops recomputing until resume.
func (d *Daemon) suspend() {
	if d.policy.Suspended() {
		return
	}
	d.overview.Emit(signals.Showing)
	d.presenter.Show()
	d.logger.Info("intellihide suspended")
}

func (d *Daemon) resume() {
	if !d.policy.Suspended() {
		return
	}
	d.overview.Emit(signals.Hiding)
	d.logger.Info("intellihide resumed", "visibility", d.policy.Status().String())
}

func (d *Daemon) toggleSuspend() {
	if d.policy.Suspended() {
		d.resume()
	} else {
		d.suspend()
	}
}

func (d *Daemon) setOnlyActive(active bool) {
	if d.policy.RestrictedToActiveWindow() == active {
		return
	}
	d.policy.OnlyActiveWindow(active)
	d.logger.Info("only-active-window changed", "active", active)
	d.policy.Refresh()
}

func (d *Daemon) toggleOnlyActive() {
	d.setOnlyActive(!d.policy.RestrictedToActiveWindow())
}

// bindings runs actions directly: hotkey callbacks are dispatched while the
// main loop is parked for X events.
func (d *Daemon) bindings(cfg *config.Config) []hotkeys.Binding {
	return []hotkeys.Binding{
		{Name: "toggle_only_active", Keys: cfg.Hotkeys.ToggleOnlyActive, Action: d.toggleOnlyActive},
		{Name: "toggle_suspend", Keys: cfg.Hotkeys.ToggleSuspend, Action: d.toggleSuspend},
	}
}

// reconcileDock notices a restarted dock and re-applies the current
// visibility to its new window.
func (d *Daemon) reconcileDock() {
	if d.locator.Class() == "" {
		return
	}
	changed, err := d.locator.Rescan()
	if err != nil {
		d.logger.Debug("dock rescan failed", "class", d.locator.Class(), "error", err)
		return
	}
	if !changed {
		return
	}
	d.logger.Info("dock window changed", "class", d.locator.Class())
	d.target.Reset()
	if d.policy.Status() == intellihide.StatusHidden && !d.policy.Suspended() {
		d.presenter.Hide()
	}
	d.policy.Refresh()
}

// reload loads the configuration again and applies it on the main loop. An
// invalid configuration is rejected and the running one kept.
func (d *Daemon) reload(reason string) error {
	d.logger.Info("reloading config", "reason", reason)
	res, err := d.load()
	if err != nil {
		d.logger.Error("config reload rejected", "error", err)
		return err
	}

	var applyErr error
	if err := d.call(func() { applyErr = d.apply(res.Config) }); err != nil {
		return err
	}
	if applyErr != nil {
		d.logger.Error("config reload rejected", "error", applyErr)
		return applyErr
	}
	if d.onLoaded != nil {
		d.onLoaded(res)
	}
	return nil
}

// restartOnly lists settings that are read once at startup.
func restartOnly(prev, next *config.Config) []string {
	var keys []string
	if prev.Display != next.Display {
		keys = append(keys, "display")
	}
	if prev.Intellihide.PollIntervalMS != next.Intellihide.PollIntervalMS {
		keys = append(keys, "intellihide.poll_interval_ms")
	}
	if prev.Intellihide.SettleDelayMS != next.Intellihide.SettleDelayMS {
		keys = append(keys, "intellihide.settle_delay_ms")
	}
	if prev.Intellihide.GrabQuietMS != next.Intellihide.GrabQuietMS {
		keys = append(keys, "intellihide.grab_quiet_ms")
	}
	return keys
}

func (d *Daemon) apply(cfg *config.Config) error {
	prev := d.cfg
	diff := config.Diff(prev, cfg)
	if diff == "" {
		d.logger.Info("config unchanged")
		return nil
	}

	presenterChanged := prev.Presenter != cfg.Presenter
	var presenter dock.Presenter
	if presenterChanged {
		p, err := d.newPresenter(cfg, d.backend, d.locator, d.logger)
		if err != nil {
			return fmt.Errorf("failed to create presenter: %w", err)
		}
		presenter = p
	}

	d.logger.Info("config changed", "diff", diff)
	if keys := restartOnly(prev, cfg); len(keys) > 0 {
		d.logger.Warn("restart the daemon to apply", "keys", strings.Join(keys, ", "))
	}

	d.level.Set(ParseLevel(cfg.LogLevel))

	if prev.Dock.Class != cfg.Dock.Class {
		d.locator.SetClass(cfg.Dock.Class)
		d.target.Reset()
	}
	d.target.SetRegion(regionBox(cfg.Dock.Region))

	if presenterChanged {
		dock.Handoff(d.presenter, presenter)
		d.presenter = presenter
		if d.policy.Status() == intellihide.StatusHidden && !d.policy.Suspended() {
			presenter.Hide()
		} else {
			presenter.Show()
		}
	}

	if prev.Hotkeys != cfg.Hotkeys && d.hotkeys != nil {
		if err := d.hotkeys.Bind(d.bindings(cfg)); err != nil {
			d.logger.Warn("some hotkeys could not be registered", "error", err)
		}
	}

	if prev.Intellihide.OnlyActiveWindow != cfg.Intellihide.OnlyActiveWindow {
		d.policy.OnlyActiveWindow(cfg.Intellihide.OnlyActiveWindow)
	}

	d.cfg = cfg
	d.policy.Refresh()
	return nil
}
