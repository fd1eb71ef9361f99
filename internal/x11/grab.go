package x11

import (
	"time"

	"github.com/1broseidon/intellihide/internal/mainloop"
)

// _NET_WM_MOVERESIZE directions. Everything below moveResizeCancel starts an
// interactive move or resize.
const (
	moveResizeKeyboardMove = 10
	moveResizeCancel       = 11
)

// DefaultGrabQuiet is how long a window must stay still before a grab that was
// inferred from geometry changes is considered finished.
const DefaultGrabQuiet = 250 * time.Millisecond

// grabTracker infers interactive move/resize operations. X11 has no grab
// notification for clients other than the window manager, so a grab starts on
// a _NET_WM_MOVERESIZE request or on the first geometry change of a top-level
// window, and ends on cancel or after the window stayed still for quiet.
type grabTracker struct {
	sched mainloop.Scheduler
	quiet time.Duration
	begin func()
	end   func()

	active bool
	timer  mainloop.SourceID
}

func newGrabTracker(sched mainloop.Scheduler, quiet time.Duration, begin, end func()) *grabTracker {
	if quiet <= 0 {
		quiet = DefaultGrabQuiet
	}
	return &grabTracker{sched: sched, quiet: quiet, begin: begin, end: end}
}

// moveResize handles a _NET_WM_MOVERESIZE direction.
func (g *grabTracker) moveResize(direction uint32) {
	if direction > moveResizeKeyboardMove {
		if direction == moveResizeCancel {
			g.finish()
		}
		return
	}
	g.motion()
}

// motion records geometry activity, starting a grab if none is active.
func (g *grabTracker) motion() {
	if !g.active {
		g.active = true
		g.begin()
	}
	g.arm()
}

func (g *grabTracker) arm() {
	if g.timer != 0 {
		g.sched.SourceRemove(g.timer)
		g.timer = 0
	}
	g.timer = g.sched.TimeoutAdd(g.quiet, func() bool {
		g.timer = 0
		g.finish()
		return false
	})
}

// finish ends the current grab, if any.
func (g *grabTracker) finish() {
	if g.timer != 0 {
		g.sched.SourceRemove(g.timer)
		g.timer = 0
	}
	if !g.active {
		return
	}
	g.active = false
	g.end()
}

// stop cancels the quiet timer without emitting anything.
func (g *grabTracker) stop() {
	if g.timer != 0 {
		g.sched.SourceRemove(g.timer)
		g.timer = 0
	}
	g.active = false
}
