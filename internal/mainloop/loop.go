// Package mainloop runs every piece of daemon logic on a single goroutine.
//
// Timeouts, posted functions and (optionally) X event dispatch are serialized,
// so code driven by the loop never needs locks.
package mainloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SourceID identifies a scheduled timeout. Zero is the null sentinel and is
// never returned by TimeoutAdd.
type SourceID uint64

// Scheduler schedules callbacks on the loop.
type Scheduler interface {
	// TimeoutAdd runs fn after interval. If fn returns true it is scheduled
	// again with the same interval.
	TimeoutAdd(interval time.Duration, fn func() bool) SourceID
	// SourceRemove cancels a timeout and reports whether it was still active.
	SourceRemove(id SourceID) bool
}

// ErrStopped is returned by Call once the loop has stopped.
var ErrStopped = errors.New("main loop stopped")

// Ping carries the channels returned by xevent.MainPing. X events are
// dispatched between Before and After while the loop waits.
type Ping struct {
	Before <-chan struct{}
	After  <-chan struct{}
	Quit   <-chan struct{}
}

type timeout struct {
	interval time.Duration
	fn       func() bool
	timer    *time.Timer
}

// Loop is a cooperative single-goroutine main loop.
type Loop struct {
	mu      sync.Mutex
	next    SourceID
	sources map[SourceID]*timeout

	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

var _ Scheduler = (*Loop)(nil)

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		sources: make(map[SourceID]*timeout),
		queue:   make(chan func(), 64),
		done:    make(chan struct{}),
	}
}

// TimeoutAdd schedules fn on the loop goroutine after interval.
func (l *Loop) TimeoutAdd(interval time.Duration, fn func() bool) SourceID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	id := l.next
	t := &timeout{interval: interval, fn: fn}
	l.sources[id] = t
	t.timer = time.AfterFunc(interval, func() {
		l.post(func() { l.dispatch(id) })
	})
	return id
}

// SourceRemove cancels the timeout. A timeout that already fired but has not
// been dispatched yet will not run.
func (l *Loop) SourceRemove(id SourceID) bool {
	if id == 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.sources[id]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(l.sources, id)
	return true
}

// Pending returns the number of active timeouts.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sources)
}

func (l *Loop) dispatch(id SourceID) {
	l.mu.Lock()
	t, ok := l.sources[id]
	l.mu.Unlock()
	if !ok {
		return
	}

	again := t.fn()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, still := l.sources[id]; !still {
		// Removed from inside fn.
		return
	}
	if again {
		t.timer.Reset(t.interval)
		return
	}
	delete(l.sources, id)
}

// Invoke runs fn on the loop goroutine. It may be called from any goroutine;
// after the loop stopped fn is dropped.
func (l *Loop) Invoke(fn func()) {
	l.post(fn)
}

// Call runs fn on the loop goroutine and waits for it to return. It must not
// be called from the loop goroutine itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run processes posted work until ctx is cancelled or ping.Quit fires. A zero
// Ping runs the loop without X event integration.
func (l *Loop) Run(ctx context.Context, ping Ping) error {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ping.Quit:
			return nil
		case <-ping.Before:
			// An X event is being dispatched; wait until it is done.
			select {
			case <-ping.After:
			case <-ctx.Done():
				return ctx.Err()
			}
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		l.mu.Lock()
		for id, t := range l.sources {
			t.timer.Stop()
			delete(l.sources, id)
		}
		l.mu.Unlock()
	})
}
