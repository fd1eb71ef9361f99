package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/intellihide/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Binding ties a key sequence such as "Mod4-Mod1-a" to an action.
type Binding struct {
	Name   string
	Keys   string
	Action func()
}

// Handler manages global keyboard shortcuts on the root window. Callbacks run
// on the X event goroutine.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger
	bound  []Binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(conn *x11.Connection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		logger: logger,
	}
}

// Bind replaces every registered hotkey with bindings. Bindings with empty
// keys are skipped. All bindings are attempted; the returned error joins the
// failures.
func (h *Handler) Bind(bindings []Binding) error {
	h.Reset()

	var errs []error
	for _, b := range Active(bindings) {
		if err := h.RegisterFunc(b.Keys, b.Action); err != nil {
			errs = append(errs, fmt.Errorf("hotkey %s (%s): %w", b.Name, b.Keys, err))
			continue
		}
		h.bound = append(h.bound, b)
		h.logger.Info("hotkey registered", "action", b.Name, "keys", b.Keys)
	}
	return errors.Join(errs...)
}

// Bound returns the currently registered bindings.
func (h *Handler) Bound() []Binding {
	return append([]Binding(nil), h.bound...)
}

// Reset ungrabs every hotkey registered on the root window.
func (h *Handler) Reset() {
	if len(h.bound) == 0 {
		return
	}
	keybind.Detach(h.xu, h.root)
	h.bound = nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// Active filters out disabled bindings and trims key sequences.
func Active(bindings []Binding) []Binding {
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		b.Keys = strings.TrimSpace(b.Keys)
		if b.Keys == "" || b.Action == nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns 0 plus every non-empty combination of base.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
