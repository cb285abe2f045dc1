package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines global and pane-specific bindings.
type KeyMap struct {
	Quit           key.Binding
	ToggleFocus    key.Binding
	Up             key.Binding
	Down           key.Binding
	PageDown       key.Binding
	PageUp         key.Binding
	Top            key.Binding
	Bottom         key.Binding
	Open           key.Binding
	ToggleCollapse key.Binding
	NextChange     key.Binding
	PrevChange     key.Binding
	SwapLead       key.Binding
	CopyPatch      key.Binding
	Refresh        key.Binding
	Help           key.Binding
}

func defaultKeyMap() KeyMap {
	return KeyMap{
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ToggleFocus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Up:             key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "move up")),
		Down:           key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "move down")),
		PageDown:       key.NewBinding(key.WithKeys("ctrl+f", "pgdown"), key.WithHelp("ctrl-f", "page down")),
		PageUp:         key.NewBinding(key.WithKeys("ctrl+b", "pgup"), key.WithHelp("ctrl-b", "page up")),
		Top:            key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:         key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Open:           key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open file / expand region")),
		ToggleCollapse: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "collapse unchanged")),
		NextChange:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next change")),
		PrevChange:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev change")),
		SwapLead:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "swap lead pane")),
		CopyPatch:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy patch")),
		Refresh:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleFocus, k.Down, k.Up, k.Open, k.ToggleCollapse, k.NextChange, k.CopyPatch, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.PageDown, k.PageUp, k.Top, k.Bottom},
		{k.Open, k.ToggleCollapse, k.NextChange, k.PrevChange, k.SwapLead},
		{k.ToggleFocus, k.CopyPatch, k.Refresh, k.Help, k.Quit},
	}
}
