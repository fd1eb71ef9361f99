package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Suspend    key.Binding
	OnlyActive key.Binding
	Reload     key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Suspend: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "suspend/resume"),
		),
		OnlyActive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle only-active"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload config"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Suspend, k.OnlyActive, k.Reload, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
