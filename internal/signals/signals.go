// Package signals provides named event sources and a registration list that
// can be torn down in one call.
//
// Emitters are not safe for concurrent use. They are meant to be driven from
// the daemon's main loop goroutine only.
package signals

import "fmt"

// Well-known event names emitted by the window-system watcher and the overview
// controller.
const (
	GrabOpBegin     = "grab-op-begin"
	GrabOpEnd       = "grab-op-end"
	Maximize        = "maximize"
	Unmaximize      = "unmaximize"
	SwitchWorkspace = "switch-workspace"
	Restacked       = "restacked"
	MonitorsChanged = "monitors-changed"
	Showing         = "showing"
	Hiding          = "hiding"
)

// HandlerID identifies a single connected handler. Zero is never issued.
type HandlerID uint64

// Source is anything handlers can be connected to.
type Source interface {
	Connect(event string, fn func()) HandlerID
	Disconnect(id HandlerID)
}

type entry struct {
	id HandlerID
	fn func()
}

// Emitter is a named event source.
type Emitter struct {
	name     string
	next     HandlerID
	handlers map[string][]entry
}

var _ Source = (*Emitter)(nil)

// NewEmitter creates an emitter. The name only shows up in String().
func NewEmitter(name string) *Emitter {
	return &Emitter{
		name:     name,
		handlers: make(map[string][]entry),
	}
}

func (e *Emitter) String() string {
	return fmt.Sprintf("emitter(%s)", e.name)
}

// Connect registers fn for event and returns its handler ID.
func (e *Emitter) Connect(event string, fn func()) HandlerID {
	e.next++
	id := e.next
	e.handlers[event] = append(e.handlers[event], entry{id: id, fn: fn})
	return id
}

// Disconnect removes a handler. Unknown IDs are ignored.
func (e *Emitter) Disconnect(id HandlerID) {
	for event, list := range e.handlers {
		for i, h := range list {
			if h.id != id {
				continue
			}
			list = append(list[:i:i], list[i+1:]...)
			if len(list) == 0 {
				delete(e.handlers, event)
			} else {
				e.handlers[event] = list
			}
			return
		}
	}
}

// Emit calls every handler connected to event, in connection order, and
// returns how many ran. Handlers connected or disconnected during emission do
// not affect the current emission.
func (e *Emitter) Emit(event string) int {
	list := e.handlers[event]
	if len(list) == 0 {
		return 0
	}
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for _, h := range snapshot {
		h.fn()
	}
	return len(snapshot)
}

// HandlerCount returns the number of handlers connected to event.
func (e *Emitter) HandlerCount(event string) int {
	return len(e.handlers[event])
}

// Connection describes one (source, event, handler) registration.
type Connection struct {
	Source Source
	Event  string
	Fn     func()
}

type bound struct {
	source Source
	id     HandlerID
}

// Handler owns a list of registrations and disconnects them together.
type Handler struct {
	bound []bound
}

// Push connects every registration and remembers it for Disconnect.
func (h *Handler) Push(conns ...Connection) {
	for _, c := range conns {
		if c.Source == nil || c.Fn == nil {
			continue
		}
		id := c.Source.Connect(c.Event, c.Fn)
		h.bound = append(h.bound, bound{source: c.Source, id: id})
	}
}

// Disconnect removes every registration made through Push. Calling it again is
// a no-op.
func (h *Handler) Disconnect() {
	for _, b := range h.bound {
		b.source.Disconnect(b.id)
	}
	h.bound = nil
}

// Len returns the number of live registrations.
func (h *Handler) Len() int {
	return len(h.bound)
}
