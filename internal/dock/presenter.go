// Package dock implements the show/hide presentation of the panel.
package dock

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/intellihide/internal/desktop"
	"github.com/1broseidon/intellihide/internal/platform"
)

// Presenter shows and hides the panel. Failures are logged, never returned.
type Presenter interface {
	Show()
	Hide()
}

// Mode names a presenter implementation.
type Mode string

const (
	ModeMap     Mode = "map"
	ModeCommand Mode = "command"
	ModeLog     Mode = "log"
)

// MapPresenter maps and unmaps the dock window.
type MapPresenter struct {
	backend platform.Backend
	locator *desktop.DockLocator
	logger  *slog.Logger
}

// NewMapPresenter creates a presenter acting on the window found by locator.
func NewMapPresenter(backend platform.Backend, locator *desktop.DockLocator, logger *slog.Logger) *MapPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MapPresenter{backend: backend, locator: locator, logger: logger}
}

func (p *MapPresenter) Show() { p.apply("show", p.backend.Map) }

func (p *MapPresenter) Hide() { p.apply("hide", p.backend.Unmap) }

func (p *MapPresenter) apply(action string, fn func(platform.WindowID) error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		id, err := p.locator.Window()
		if err != nil {
			lastErr = err
			break
		}
		if err := fn(id); err != nil {
			lastErr = err
			p.locator.Forget()
			continue
		}
		p.logger.Debug("dock "+action, "window", fmt.Sprintf("0x%x", uint32(id)))
		return
	}
	p.logger.Warn("failed to "+action+" dock", "class", p.locator.Class(), "error", lastErr)
}

// CommandPresenter runs a shell command for each transition. Commands run one
// at a time on a background worker. Only the latest requested state waits
// behind a running command, so a burst of transitions collapses and the last
// one always runs.
type CommandPresenter struct {
	showCommand string
	hideCommand string
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	pending *commandJob
	running string
	started bool
	closed  bool
	after   <-chan struct{}
	wake    chan struct{}
	done    chan struct{}
}

type commandJob struct {
	action  string
	command string
}

// DefaultCommandTimeout bounds a single show or hide command.
const DefaultCommandTimeout = 5 * time.Second

// NewCommandPresenter creates a presenter running showCommand and hideCommand
// through sh -c. An empty command is skipped.
func NewCommandPresenter(showCommand, hideCommand string, logger *slog.Logger) *CommandPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &CommandPresenter{
		showCommand: strings.TrimSpace(showCommand),
		hideCommand: strings.TrimSpace(hideCommand),
		timeout:     DefaultCommandTimeout,
		logger:      logger,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	return p
}

func (p *CommandPresenter) Show() { p.request("show", p.showCommand) }

func (p *CommandPresenter) Hide() { p.request("hide", p.hideCommand) }

// Wait blocks until the worker is idle.
func (p *CommandPresenter) Wait() {
	p.mu.Lock()
	for p.pending != nil || p.running != "" {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Close stops the worker once the running and pending commands finished. It
// does not block. Show and Hide are no-ops afterwards.
func (p *CommandPresenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if !p.started {
		p.started = true
		close(p.done)
		return
	}
	p.signal()
}

// Done is closed when the worker exited after Close.
func (p *CommandPresenter) Done() <-chan struct{} {
	return p.done
}

// runAfter holds the first command until ch is closed.
func (p *CommandPresenter) runAfter(ch <-chan struct{}) {
	p.mu.Lock()
	p.after = ch
	p.mu.Unlock()
}

func (p *CommandPresenter) request(action, command string) {
	if command == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.running == action {
		// The running command already delivers this state.
		if p.pending != nil {
			p.logger.Debug("dock "+p.pending.action+" command superseded", "command", p.pending.command)
			p.pending = nil
			p.idle.Broadcast()
		}
		return
	}
	if p.pending != nil && p.pending.action != action {
		p.logger.Debug("dock "+p.pending.action+" command superseded", "command", p.pending.command)
	}
	p.pending = &commandJob{action: action, command: command}

	if !p.started {
		p.started = true
		go p.worker(p.after)
	}
	p.signal()
}

func (p *CommandPresenter) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *CommandPresenter) worker(after <-chan struct{}) {
	defer close(p.done)
	if after != nil {
		<-after
	}
	for {
		p.mu.Lock()
		job := p.pending
		p.pending = nil
		if job == nil {
			p.running = ""
			p.idle.Broadcast()
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			<-p.wake
			continue
		}
		p.running = job.action
		p.mu.Unlock()

		p.run(*job)
	}
}

func (p *CommandPresenter) run(job commandJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", job.command).CombinedOutput()
	if err != nil {
		p.logger.Warn("dock "+job.action+" command failed",
			"command", job.command,
			"error", err,
			"output", strings.TrimSpace(string(out)),
		)
		return
	}
	p.logger.Debug("dock "+job.action+" command ran", "command", job.command)
}

// LogPresenter only logs transitions.
type LogPresenter struct {
	logger *slog.Logger
}

// NewLogPresenter creates a LogPresenter.
func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{logger: logger}
}

func (p *LogPresenter) Show() { p.logger.Info("dock show") }

func (p *LogPresenter) Hide() { p.logger.Info("dock hide") }

// Options selects and configures a presenter.
type Options struct {
	Mode        Mode
	ShowCommand string
	HideCommand string
	Backend     platform.Backend
	Locator     *desktop.DockLocator
	Logger      *slog.Logger
}

// New builds the presenter for opts.Mode.
func New(opts Options) (Presenter, error) {
	switch opts.Mode {
	case ModeMap, "":
		if opts.Backend == nil || opts.Locator == nil {
			return nil, fmt.Errorf("presenter mode %q requires a backend and a dock class", ModeMap)
		}
		return NewMapPresenter(opts.Backend, opts.Locator, opts.Logger), nil
	case ModeCommand:
		if strings.TrimSpace(opts.ShowCommand) == "" && strings.TrimSpace(opts.HideCommand) == "" {
			return nil, fmt.Errorf("presenter mode %q requires show_command or hide_command", ModeCommand)
		}
		return NewCommandPresenter(opts.ShowCommand, opts.HideCommand, opts.Logger), nil
	case ModeLog:
		return NewLogPresenter(opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown presenter mode %q", opts.Mode)
	}
}

// Handoff replaces old with next without blocking: old shows the dock and is
// closed, and next holds its first command until old's commands finished so
// the two never interleave.
func Handoff(old, next Presenter) {
	old.Show()
	prev, ok := old.(*CommandPresenter)
	if !ok {
		Close(old)
		return
	}
	prev.Close()
	if c, ok := next.(*CommandPresenter); ok {
		c.runAfter(prev.Done())
	}
}

// Close releases presenter resources, if it holds any, after pending work
// finished.
func Close(p Presenter) {
	if c, ok := p.(interface{ Close() }); ok {
		c.Close()
	}
	if w, ok := p.(interface{ Wait() }); ok {
		w.Wait()
	}
}
