package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Axis     key.Binding
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Reset    key.Binding
	ResetAll key.Binding
	Save     key.Binding
	Reload   key.Binding
	Pause    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Axis:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "zoom axis")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		ResetAll: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset all")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save view")),
		Reload:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload config")),
		Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Reset, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Axis},
		{k.Left, k.Right, k.Up, k.Down},
		{k.Reset, k.ResetAll, k.Save},
		{k.Reload, k.Pause, k.Help, k.Quit},
	}
}
