package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Box is a screen region by its corners. X2/Y2 are exclusive.
type Box struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// DockConfig identifies the panel.
type DockConfig struct {
	// Class is the WM_CLASS class or instance of the dock window.
	Class string `yaml:"class"`
	// Region overrides the dock window geometry when non-empty.
	Region Box `yaml:"region"`
}

// PresenterMode selects how the panel is shown and hidden.
type PresenterMode string

const (
	PresenterMap     PresenterMode = "map"
	PresenterCommand PresenterMode = "command"
	PresenterLog     PresenterMode = "log"
)

// PresenterConfig configures show/hide presentation.
type PresenterConfig struct {
	Mode        PresenterMode `yaml:"mode"`
	ShowCommand string        `yaml:"show_command,omitempty"`
	HideCommand string        `yaml:"hide_command,omitempty"`
}

// IntellihideConfig tunes the visibility policy.
type IntellihideConfig struct {
	OnlyActiveWindow bool `yaml:"only_active_window"`
	PollIntervalMS   int  `yaml:"poll_interval_ms"`

	// SettleDelayMS of 0 selects the built-in delay.
	SettleDelayMS int `yaml:"settle_delay_ms"`
	GrabQuietMS   int `yaml:"grab_quiet_ms"`
}

// HotkeysConfig binds global hotkeys. Empty disables a binding.
type HotkeysConfig struct {
	ToggleOnlyActive string `yaml:"toggle_only_active"`
	ToggleSuspend    string `yaml:"toggle_suspend"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Display     string            `yaml:"display,omitempty"`
	Dock        DockConfig        `yaml:"dock"`
	Presenter   PresenterConfig   `yaml:"presenter"`
	Intellihide IntellihideConfig `yaml:"intellihide"`
	Hotkeys     HotkeysConfig     `yaml:"hotkeys"`
}

const (
	DefaultDockClass      = "Polybar"
	DefaultPollIntervalMS = 100
	DefaultSettleDelayMS  = 200
	DefaultGrabQuietMS    = 250
)

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Dock: DockConfig{
			Class: DefaultDockClass,
		},
		Presenter: PresenterConfig{
			Mode: PresenterMap,
		},
		Intellihide: IntellihideConfig{
			PollIntervalMS: DefaultPollIntervalMS,
			SettleDelayMS:  DefaultSettleDelayMS,
			GrabQuietMS:    DefaultGrabQuietMS,
		},
		Hotkeys: HotkeysConfig{
			ToggleOnlyActive: "Mod4-Mod1-a",
			ToggleSuspend:    "Mod4-Mod1-s",
		},
	}
}

// NormalizeLogLevel lowercases a log level and folds "warn" into "warning".
// The result is not checked against the known levels.
func NormalizeLogLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warn" {
		return "warning"
	}
	return level
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch NormalizeLogLevel(c.LogLevel) {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, warning, error")}
	}

	region := c.Dock.Region
	if region != (Box{}) && region.Empty() {
		return &ValidationError{Path: "dock.region", Err: fmt.Errorf("region must have x2 > x1 and y2 > y1")}
	}
	if strings.TrimSpace(c.Dock.Class) == "" && region.Empty() {
		return &ValidationError{Path: "dock.class", Err: fmt.Errorf("dock.class is required unless dock.region is set")}
	}

	switch c.Presenter.Mode {
	case PresenterMap:
		if strings.TrimSpace(c.Dock.Class) == "" {
			return &ValidationError{Path: "presenter.mode", Err: fmt.Errorf("map mode requires dock.class")}
		}
	case PresenterCommand:
		if strings.TrimSpace(c.Presenter.ShowCommand) == "" && strings.TrimSpace(c.Presenter.HideCommand) == "" {
			return &ValidationError{Path: "presenter.show_command", Err: fmt.Errorf("command mode requires show_command or hide_command")}
		}
	case PresenterLog:
	default:
		return &ValidationError{Path: "presenter.mode", Err: fmt.Errorf("presenter.mode must be one of: map, command, log")}
	}

	if c.Intellihide.PollIntervalMS < 10 {
		return &ValidationError{Path: "intellihide.poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be >= 10")}
	}
	if c.Intellihide.SettleDelayMS < 0 {
		return &ValidationError{Path: "intellihide.settle_delay_ms", Err: fmt.Errorf("settle_delay_ms must be >= 0")}
	}
	if c.Intellihide.GrabQuietMS < 50 {
		return &ValidationError{Path: "intellihide.grab_quiet_ms", Err: fmt.Errorf("grab_quiet_ms must be >= 50")}
	}

	hotkeys := map[string]string{
		"hotkeys.toggle_only_active": c.Hotkeys.ToggleOnlyActive,
		"hotkeys.toggle_suspend":     c.Hotkeys.ToggleSuspend,
	}
	for path, key := range hotkeys {
		if key != strings.TrimSpace(key) {
			return &ValidationError{Path: path, Err: fmt.Errorf("hotkey must not have surrounding whitespace")}
		}
	}
	if c.Hotkeys.ToggleOnlyActive != "" && c.Hotkeys.ToggleOnlyActive == c.Hotkeys.ToggleSuspend {
		return &ValidationError{Path: "hotkeys.toggle_suspend", Err: fmt.Errorf("hotkey %q is already bound to toggle_only_active", c.Hotkeys.ToggleSuspend)}
	}

	return nil
}

// PollInterval is the grab poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Intellihide.PollIntervalMS) * time.Millisecond
}

// SettleDelay is the delay of the first recompute after startup.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Intellihide.SettleDelayMS) * time.Millisecond
}

// GrabQuiet is how long windows must stay still before a grab ends.
func (c *Config) GrabQuiet() time.Duration {
	return time.Duration(c.Intellihide.GrabQuietMS) * time.Millisecond
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
