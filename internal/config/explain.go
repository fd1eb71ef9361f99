package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	display
//	dock
//	dock.class
//	dock.region
//	dock.region.x1
//	presenter.mode
//	presenter.show_command
//	intellihide.only_active_window
//	intellihide.poll_interval_ms
//	hotkeys.toggle_suspend
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	leaf := func(values map[string]any) (any, error) {
		if len(parts) != 2 {
			return nil, unknown
		}
		v, ok := values[parts[1]]
		if !ok {
			return nil, unknown
		}
		return v, nil
	}

	switch parts[0] {
	case "log_level":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.LogLevel, nil
	case "display":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.Display, nil
	case "dock":
		if len(parts) == 1 {
			return cfg.Dock, nil
		}
		switch parts[1] {
		case "class":
			if len(parts) != 2 {
				return nil, unknown
			}
			return cfg.Dock.Class, nil
		case "region":
			if len(parts) == 2 {
				return cfg.Dock.Region, nil
			}
			if len(parts) != 3 {
				return nil, unknown
			}
			switch parts[2] {
			case "x1":
				return cfg.Dock.Region.X1, nil
			case "y1":
				return cfg.Dock.Region.Y1, nil
			case "x2":
				return cfg.Dock.Region.X2, nil
			case "y2":
				return cfg.Dock.Region.Y2, nil
			}
		}
		return nil, unknown
	case "presenter":
		if len(parts) == 1 {
			return cfg.Presenter, nil
		}
		return leaf(map[string]any{
			"mode":         cfg.Presenter.Mode,
			"show_command": cfg.Presenter.ShowCommand,
			"hide_command": cfg.Presenter.HideCommand,
		})
	case "intellihide":
		if len(parts) == 1 {
			return cfg.Intellihide, nil
		}
		return leaf(map[string]any{
			"only_active_window": cfg.Intellihide.OnlyActiveWindow,
			"poll_interval_ms":   cfg.Intellihide.PollIntervalMS,
			"settle_delay_ms":    cfg.Intellihide.SettleDelayMS,
			"grab_quiet_ms":      cfg.Intellihide.GrabQuietMS,
		})
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		return leaf(map[string]any{
			"toggle_only_active": cfg.Hotkeys.ToggleOnlyActive,
			"toggle_suspend":     cfg.Hotkeys.ToggleSuspend,
		})
	default:
		return nil, unknown
	}
}
