package mcp

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Visibility           string `json:"visibility" jsonschema:"shown, hidden or unknown"`
	Suspended            bool   `json:"suspended"`
	OnlyActiveWindow     bool   `json:"only_active_window" jsonschema:"Whether hiding is currently restricted to windows of the focused application"`
	ConfiguredOnlyActive bool   `json:"configured_only_active" jsonschema:"The only_active_window value from the configuration file"`
	FocusApp             string `json:"focus_app,omitempty"`
	DockClass            string `json:"dock_class,omitempty"`
	PresenterMode        string `json:"presenter_mode"`
	Shows                int    `json:"shows"`
	Hides                int    `json:"hides"`
	Recomputes           int    `json:"recomputes"`
	UptimeSeconds        int64  `json:"uptime_seconds"`
}

// Monitor describes one monitor.
type Monitor struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors []Monitor `json:"monitors"`
}

// SetOnlyActiveWindowInput is the input for the set_only_active_window tool.
type SetOnlyActiveWindowInput struct {
	Active bool `json:"active" jsonschema:"Restrict hiding to windows of the focused application"`
}

// ActionOutput is returned by tools that change daemon state.
type ActionOutput struct {
	OK         bool   `json:"ok"`
	Visibility string `json:"visibility,omitempty" jsonschema:"Dock visibility after the action, when the daemon reported it"`
	Suspended  bool   `json:"suspended"`
}
