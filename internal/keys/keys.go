package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Open the message under the cursor
	Open key.Binding

	// Multi-select
	Check      key.Binding
	CheckAll   key.Binding
	MarkRead   key.Binding
	MarkUnread key.Binding
	Clear      key.Binding

	// Pane focus
	Focus key.Binding

	// Manual refresh
	Refresh key.Binding

	// Add or update a source
	AddSource key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Check: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "check"),
		),
		CheckAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "check all"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "mark as read"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "mark as unread"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear checked"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		AddSource: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add source"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Open, k.Check,
		k.Focus, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Focus},
		{k.Check, k.CheckAll, k.MarkRead, k.MarkUnread, k.Clear},
		{k.Refresh, k.AddSource, k.Help, k.Quit},
	}
}
