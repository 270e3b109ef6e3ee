// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the forecast screen.
type KeyMap struct {
	// Navigation
	Up        key.Binding
	Down      key.Binding
	NextPanel key.Binding
	PrevPanel key.Binding

	// Fields
	Activate key.Binding
	Clear    key.Binding

	// Operations
	Cancel       key.Binding
	SaveDefaults key.Binding

	// General
	ToggleLogs key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// EditKeyMap applies while a field is being edited.
type EditKeyMap struct {
	Commit  key.Binding
	Discard key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous field"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next field"),
		),
		NextPanel: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "next panel"),
		),
		PrevPanel: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab", "previous panel"),
		),

		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit / run"),
		),
		Clear: key.NewBinding(
			key.WithKeys("backspace", "delete"),
			key.WithHelp("del", "clear field"),
		),

		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel run"),
		),
		SaveDefaults: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save defaults"),
		),

		ToggleLogs: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DefaultEditKeyMap returns the bindings used while editing a field.
func DefaultEditKeyMap() EditKeyMap {
	return EditKeyMap{
		Commit: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "apply"),
		),
		Discard: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.NextPanel, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPanel, k.PrevPanel},
		{k.Activate, k.Clear},
		{k.Cancel, k.SaveDefaults},
		{k.ToggleLogs, k.Help, k.Quit},
	}
}

// ShortHelp returns keybindings for the short help view.
func (k EditKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Discard}
}

// FullHelp returns keybindings for the full help view.
func (k EditKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
