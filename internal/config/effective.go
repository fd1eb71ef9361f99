package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw overrides on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = NormalizeLogLevel(*raw.LogLevel)
	}
	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}

	if raw.Dock != nil {
		if raw.Dock.Class != nil {
			cfg.Dock.Class = strings.TrimSpace(*raw.Dock.Class)
		}
		if r := raw.Dock.Region; r != nil {
			cfg.Dock.Region = Box{
				X1: derefInt(r.X1, 0),
				Y1: derefInt(r.Y1, 0),
				X2: derefInt(r.X2, 0),
				Y2: derefInt(r.Y2, 0),
			}
		}
	}

	if raw.Presenter != nil {
		if raw.Presenter.Mode != nil {
			mode := PresenterMode(strings.ToLower(strings.TrimSpace(string(*raw.Presenter.Mode))))
			if mode == "" {
				return nil, &ValidationError{Path: "presenter.mode", Err: fmt.Errorf("mode must not be empty")}
			}
			cfg.Presenter.Mode = mode
		}
		if raw.Presenter.ShowCommand != nil {
			cfg.Presenter.ShowCommand = *raw.Presenter.ShowCommand
		}
		if raw.Presenter.HideCommand != nil {
			cfg.Presenter.HideCommand = *raw.Presenter.HideCommand
		}
	}

	if raw.Intellihide != nil {
		ih := raw.Intellihide
		if ih.OnlyActiveWindow != nil {
			cfg.Intellihide.OnlyActiveWindow = *ih.OnlyActiveWindow
		}
		cfg.Intellihide.PollIntervalMS = derefInt(ih.PollIntervalMS, cfg.Intellihide.PollIntervalMS)
		cfg.Intellihide.SettleDelayMS = derefInt(ih.SettleDelayMS, cfg.Intellihide.SettleDelayMS)
		cfg.Intellihide.GrabQuietMS = derefInt(ih.GrabQuietMS, cfg.Intellihide.GrabQuietMS)
	}

	if raw.Hotkeys != nil {
		if raw.Hotkeys.ToggleOnlyActive != nil {
			cfg.Hotkeys.ToggleOnlyActive = *raw.Hotkeys.ToggleOnlyActive
		}
		if raw.Hotkeys.ToggleSuspend != nil {
			cfg.Hotkeys.ToggleSuspend = *raw.Hotkeys.ToggleSuspend
		}
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
