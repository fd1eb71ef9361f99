// Package daemon wires the intellihide policy to X11, the dock presenters,
// hotkeys, the IPC socket and config reloads.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/intellihide/internal/config"
	"github.com/1broseidon/intellihide/internal/desktop"
	"github.com/1broseidon/intellihide/internal/dock"
	"github.com/1broseidon/intellihide/internal/hotkeys"
	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/ipc"
	"github.com/1broseidon/intellihide/internal/mainloop"
	"github.com/1broseidon/intellihide/internal/platform"
	"github.com/1broseidon/intellihide/internal/runtimepath"
	"github.com/1broseidon/intellihide/internal/signals"
	"github.com/1broseidon/intellihide/internal/x11"
)

// callTimeout bounds how long an IPC request waits for the main loop.
const callTimeout = 5 * time.Second

// Options configures Run.
type Options struct {
	// ConfigPath overrides the default config location.
	ConfigPath string
	// SocketPath overrides the IPC socket location.
	SocketPath string
}

// PresenterFactory builds the presenter for a configuration.
type PresenterFactory func(cfg *config.Config, backend platform.Backend, locator *desktop.DockLocator, logger *slog.Logger) (dock.Presenter, error)

// hotkeyBinder is the part of hotkeys.Handler the daemon drives.
type hotkeyBinder interface {
	Bind(bindings []hotkeys.Binding) error
	Reset()
}

// deps are the collaborators newDaemon wires together.
type deps struct {
	backend      platform.Backend
	loop         *mainloop.Loop
	sources      intellihide.Sources
	logger       *slog.Logger
	level        *slog.LevelVar
	load         func() (*config.LoadResult, error)
	newPresenter PresenterFactory
}

// Daemon owns the policy and everything reconfigurable at runtime. Fields
// other than loop, logger and load are touched only on the main loop.
type Daemon struct {
	loop         *mainloop.Loop
	logger       *slog.Logger
	level        *slog.LevelVar
	load         func() (*config.LoadResult, error)
	newPresenter PresenterFactory
	onLoaded     func(*config.LoadResult)

	backend   platform.Backend
	cfg       *config.Config
	overview  *signals.Emitter
	locator   *desktop.DockLocator
	target    *desktop.Target
	presenter dock.Presenter
	policy    *intellihide.Policy
	hotkeys   hotkeyBinder
}

var _ ipc.Controller = (*Daemon)(nil)

// BuildPresenter is the default PresenterFactory.
func BuildPresenter(cfg *config.Config, backend platform.Backend, locator *desktop.DockLocator, logger *slog.Logger) (dock.Presenter, error) {
	return dock.New(dock.Options{
		Mode:        dock.Mode(cfg.Presenter.Mode),
		ShowCommand: cfg.Presenter.ShowCommand,
		HideCommand: cfg.Presenter.HideCommand,
		Backend:     backend,
		Locator:     locator,
		Logger:      logger,
	})
}

func regionBox(b config.Box) platform.Box {
	return platform.Box{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2}
}

// newDaemon builds the policy from cfg. It must run before the loop starts or
// on the loop.
func newDaemon(cfg *config.Config, d deps) (*Daemon, error) {
	if d.newPresenter == nil {
		d.newPresenter = BuildPresenter
	}
	if d.level == nil {
		d.level = new(slog.LevelVar)
	}

	dm := &Daemon{
		loop:         d.loop,
		logger:       d.logger,
		level:        d.level,
		load:         d.load,
		newPresenter: d.newPresenter,
		backend:      d.backend,
		cfg:          cfg,
		overview:     signals.NewEmitter("overview"),
	}
	dm.locator = desktop.NewDockLocator(d.backend, cfg.Dock.Class)
	dm.target = desktop.NewTarget(dm.locator, regionBox(cfg.Dock.Region), d.logger)

	presenter, err := dm.newPresenter(cfg, d.backend, dm.locator, d.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	dm.presenter = presenter

	sources := d.sources
	sources.Overview = dm.overview
	policy, err := intellihide.New(intellihide.Options{
		ShowFunc:         func() { dm.presenter.Show() },
		HideFunc:         func() { dm.presenter.Hide() },
		Target:           dm.target,
		Screen:           desktop.NewScreen(d.backend, d.logger),
		Tracker:          desktop.NewTracker(d.backend, d.logger),
		Scheduler:        d.loop,
		Sources:          sources,
		Logger:           d.logger,
		PollInterval:     cfg.PollInterval(),
		SettleDelay:      cfg.SettleDelay(),
		OnlyActiveWindow: cfg.Intellihide.OnlyActiveWindow,
	})
	if err != nil {
		dock.Close(presenter)
		return nil, err
	}
	dm.policy = policy
	return dm, nil
}

// Run starts the daemon and blocks until ctx is cancelled or SIGINT/SIGTERM
// arrives.
func Run(ctx context.Context, opts Options) error {
	loadConfig := func() (*config.LoadResult, error) {
		if opts.ConfigPath != "" {
			return config.LoadFromPath(opts.ConfigPath)
		}
		return config.LoadWithSources()
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	res, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logger, level := NewLogger(os.Stderr, cfg.LogLevel)
	logger.Info("configuration loaded", "path", configPath, "files", len(res.Files), "dock", cfg.Dock.Class, "presenter", cfg.Presenter.Mode)

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()
	conn := backend.Connection()

	loop := mainloop.New()
	watcher, err := x11.NewWatcher(conn, x11.WatcherOptions{
		Scheduler: loop,
		GrabQuiet: cfg.GrabQuiet(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	d, err := newDaemon(cfg, deps{
		backend: backend,
		loop:    loop,
		sources: intellihide.Sources{
			Display:       watcher.Display,
			WindowManager: watcher.WindowManager,
			Screen:        watcher.Screen,
		},
		logger: logger,
		level:  level,
		load:   loadConfig,
	})
	if err != nil {
		return err
	}
	defer d.shutdown()

	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	handler := hotkeys.NewHandler(conn, logger)
	d.hotkeys = handler
	if err := handler.Bind(d.bindings(cfg)); err != nil {
		logger.Warn("some hotkeys could not be registered", "error", err)
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		if socketPath, err = runtimepath.SocketPath(); err != nil {
			return fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	server := ipc.NewServer(socketPath, d, logger)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reloads := make(chan string, 1)
	go d.reloadLoop(ctx, reloads)

	if cw, err := newConfigWatcher(logger); err != nil {
		logger.Warn("config file watching unavailable", "error", err)
	} else {
		defer cw.Close()
		cw.Track(configPath, res.Files)
		d.onLoaded = func(res *config.LoadResult) { cw.Track(configPath, res.Files) }
		go cw.Run(ctx, reloads)
	}

	reconciler := NewReconciler(ReconcilerConfig{Logger: logger}, func() {
		callCtx, callCancel := context.WithTimeout(ctx, callTimeout)
		defer callCancel()
		_ = loop.Call(callCtx, d.reconcileDock)
	})
	go reconciler.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					requestReload(reloads, "received SIGHUP")
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	before, after, quit := conn.EventLoopPing()
	logger.Info("intellihide daemon started", "socket", socketPath)
	err = loop.Run(ctx, mainloop.Ping{Before: before, After: after, Quit: quit})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func requestReload(reloads chan<- string, reason string) {
	select {
	case reloads <- reason:
	default:
	}
}

func (d *Daemon) reloadLoop(ctx context.Context, reloads <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-reloads:
			_ = d.reload(reason)
		}
	}
}

// shutdown releases the policy and leaves the dock visible. The loop must
// have stopped.
func (d *Daemon) shutdown() {
	d.policy.Destroy()
	if d.hotkeys != nil {
		d.hotkeys.Reset()
	}
	d.presenter.Show()
	dock.Close(d.presenter)
}
