package home

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Connect key.Binding
	Compose key.Binding
	Refresh key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open/close")),
		Connect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect instagram")),
		Compose: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "schedule")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// browseKeys is the help.KeyMap shown while navigating sections.
type browseKeys struct{ keyMap }

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Connect, k.Compose, k.Help, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Connect, k.Compose, k.Refresh},
		{k.Dismiss, k.Help, k.Quit},
	}
}

// composeKeys is the help.KeyMap shown while the post form has focus.
type composeKeys struct{ keyMap }

func (k composeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Submit, k.Cancel}
}

func (k composeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
