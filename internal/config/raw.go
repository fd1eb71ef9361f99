package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawBox struct {
	X1 *int `yaml:"x1"`
	Y1 *int `yaml:"y1"`
	X2 *int `yaml:"x2"`
	Y2 *int `yaml:"y2"`
}

type RawDock struct {
	Class  *string `yaml:"class"`
	Region *RawBox `yaml:"region"`
}

type RawPresenter struct {
	Mode        *PresenterMode `yaml:"mode"`
	ShowCommand *string        `yaml:"show_command"`
	HideCommand *string        `yaml:"hide_command"`
}

type RawIntellihide struct {
	OnlyActiveWindow *bool `yaml:"only_active_window"`
	PollIntervalMS   *int  `yaml:"poll_interval_ms"`
	SettleDelayMS    *int  `yaml:"settle_delay_ms"`
	GrabQuietMS      *int  `yaml:"grab_quiet_ms"`
}

type RawHotkeys struct {
	ToggleOnlyActive *string `yaml:"toggle_only_active"`
	ToggleSuspend    *string `yaml:"toggle_suspend"`
}

type RawConfig struct {
	Include     IncludeList     `yaml:"include"`
	LogLevel    *string         `yaml:"log_level"`
	Display     *string         `yaml:"display"`
	Dock        *RawDock        `yaml:"dock"`
	Presenter   *RawPresenter   `yaml:"presenter"`
	Intellihide *RawIntellihide `yaml:"intellihide"`
	Hotkeys     *RawHotkeys     `yaml:"hotkeys"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Dock != nil {
		merged := mergeRawDock(derefOr(out.Dock), *overlay.Dock)
		out.Dock = &merged
	}
	if overlay.Presenter != nil {
		merged := mergeRawPresenter(derefOr(out.Presenter), *overlay.Presenter)
		out.Presenter = &merged
	}
	if overlay.Intellihide != nil {
		merged := mergeRawIntellihide(derefOr(out.Intellihide), *overlay.Intellihide)
		out.Intellihide = &merged
	}
	if overlay.Hotkeys != nil {
		merged := mergeRawHotkeys(derefOr(out.Hotkeys), *overlay.Hotkeys)
		out.Hotkeys = &merged
	}

	return out
}

func derefOr[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func mergeRawBox(base RawBox, overlay RawBox) RawBox {
	out := base
	if overlay.X1 != nil {
		out.X1 = overlay.X1
	}
	if overlay.Y1 != nil {
		out.Y1 = overlay.Y1
	}
	if overlay.X2 != nil {
		out.X2 = overlay.X2
	}
	if overlay.Y2 != nil {
		out.Y2 = overlay.Y2
	}
	return out
}

func mergeRawDock(base RawDock, overlay RawDock) RawDock {
	out := base
	if overlay.Class != nil {
		out.Class = overlay.Class
	}
	if overlay.Region != nil {
		merged := mergeRawBox(derefOr(out.Region), *overlay.Region)
		out.Region = &merged
	}
	return out
}

func mergeRawPresenter(base RawPresenter, overlay RawPresenter) RawPresenter {
	out := base
	if overlay.Mode != nil {
		out.Mode = overlay.Mode
	}
	if overlay.ShowCommand != nil {
		out.ShowCommand = overlay.ShowCommand
	}
	if overlay.HideCommand != nil {
		out.HideCommand = overlay.HideCommand
	}
	return out
}

func mergeRawIntellihide(base RawIntellihide, overlay RawIntellihide) RawIntellihide {
	out := base
	if overlay.OnlyActiveWindow != nil {
		out.OnlyActiveWindow = overlay.OnlyActiveWindow
	}
	if overlay.PollIntervalMS != nil {
		out.PollIntervalMS = overlay.PollIntervalMS
	}
	if overlay.SettleDelayMS != nil {
		out.SettleDelayMS = overlay.SettleDelayMS
	}
	if overlay.GrabQuietMS != nil {
		out.GrabQuietMS = overlay.GrabQuietMS
	}
	return out
}

func mergeRawHotkeys(base RawHotkeys, overlay RawHotkeys) RawHotkeys {
	out := base
	if overlay.ToggleOnlyActive != nil {
		out.ToggleOnlyActive = overlay.ToggleOnlyActive
	}
	if overlay.ToggleSuspend != nil {
		out.ToggleSuspend = overlay.ToggleSuspend
	}
	return out
}
