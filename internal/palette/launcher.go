// Package palette offers the dock actions through a rofi, fuzzel, wofi or
// dmenu picker.
package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the picker closes without a selection.
var ErrCancelled = errors.New("palette cancelled")

// Item is one selectable row.
type Item struct {
	Label    string
	Action   string
	Icon     string
	IsActive bool
}

type pickerKind int

const (
	kindRofi pickerKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// pickers lists the supported programs in auto-detection order.
var pickers = []struct {
	name string
	kind pickerKind
}{
	{"rofi", kindRofi},
	{"fuzzel", kindFuzzel},
	{"wofi", kindWofi},
	{"dmenu", kindDmenu},
}

// runFunc runs a picker with input on stdin and returns its stdout.
type runFunc func(command string, args []string, input string) (string, error)

// Launcher drives one picker program.
type Launcher struct {
	command string
	kind    pickerKind
	run     runFunc
}

// NewLauncher returns a launcher for name. An empty name or "auto" picks the
// first program found in PATH.
func NewLauncher(name string) (*Launcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range pickers {
		if name != "" && name != "auto" && name != p.name {
			continue
		}
		if _, err := exec.LookPath(p.name); err != nil {
			if name == p.name {
				return nil, fmt.Errorf("palette backend %q not found in PATH", p.name)
			}
			continue
		}
		return &Launcher{command: p.name, kind: p.kind, run: runPicker}, nil
	}
	if name == "" || name == "auto" {
		return nil, fmt.Errorf("no palette backend found in PATH (looked for: rofi, fuzzel, wofi, dmenu)")
	}
	return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu)", name)
}

// Command returns the picker program name.
func (l *Launcher) Command() string { return l.command }

// Choose shows items and returns the selected one. message is shown above the
// rows where the picker supports it.
func (l *Launcher) Choose(prompt, message string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	out, err := l.run(l.command, l.args(prompt, message, items), l.input(items))
	if err != nil {
		return Item{}, err
	}
	selection := strings.TrimSpace(out)
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parse(selection, items)
}

func (l *Launcher) args(prompt, message string, items []Item) []string {
	switch l.kind {
	case kindRofi:
		args := []string{"-dmenu", "-i", "-p", prompt, "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		for i, item := range items {
			if item.IsActive {
				args = append(args, "-a", strconv.Itoa(i), "-selected-row", strconv.Itoa(i))
				break
			}
		}
		if message != "" {
			args = append(args, "-mesg", html.EscapeString(message))
		}
		return args
	case kindFuzzel:
		return []string{"--dmenu", "--index", "--prompt", prompt + " "}
	case kindWofi:
		return []string{"--dmenu", "--prompt", prompt}
	default:
		return []string{"-i", "-p", prompt}
	}
}

func (l *Launcher) input(items []Item) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		label := cleanLabel(item.Label)
		if l.kind == kindRofi {
			label = html.EscapeString(label)
			if item.Icon != "" {
				// rofi row properties follow a single NUL, key and value split by \x1f.
				label += "\x00icon\x1f" + cleanLabel(item.Icon)
			}
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (l *Launcher) parse(selection string, items []Item) (Item, error) {
	if l.kind == kindRofi || l.kind == kindFuzzel {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if cleanLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func cleanLabel(s string) string {
	s = strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}

func runPicker(command string, args []string, input string) (string, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return string(out), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// 1 is "no selection" for every supported picker, 130 is Ctrl+C.
		if code := exitErr.ExitCode(); code == 1 || code == 130 {
			return "", ErrCancelled
		}
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%s failed: %s", command, msg)
	}
	return "", fmt.Errorf("%s failed: %w", command, err)
}
