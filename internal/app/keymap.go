package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all review browser keybindings.
type KeyMap struct {
	// Navigation
	FocusNext key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Filter    key.Binding

	// Report
	ToggleExpected key.Binding
	ToggleHints    key.Binding
	Regrade        key.Binding
	Export         key.Binding

	// App
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the review browser keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusNext: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter files"),
		),
		ToggleExpected: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expected lines"),
		),
		ToggleHints: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hint markers"),
		),
		Regrade: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r", "regrade"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export summary"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "f1"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns a subset of keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.FocusNext, k.Filter, k.ToggleExpected, k.ToggleHints, k.Regrade, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.FocusNext, k.Filter},
		{k.ToggleExpected, k.ToggleHints, k.Regrade, k.Export},
		{k.Quit, k.Help},
	}
}
