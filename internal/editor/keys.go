package editor

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the editor key bindings
type keyMap struct {
	NextDevice key.Binding
	PrevDevice key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Edit       key.Binding
	Toggle     key.Binding
	Revert     key.Binding
	Save       key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextDevice, k.Edit, k.Save, k.Reload, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextDevice, k.PrevDevice, k.Up, k.Down, k.Left, k.Right},
		{k.Edit, k.Toggle, k.Revert},
		{k.Save, k.Reload, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		NextDevice: key.NewBinding(
			key.WithKeys("tab", "]"),
			key.WithHelp("tab", "next device"),
		),
		PrevDevice: key.NewBinding(
			key.WithKeys("shift+tab", "["),
			key.WithHelp("shift+tab", "previous device"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle invert"),
		),
		Revert: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s", "s"),
			key.WithHelp("s", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r", "r"),
			key.WithHelp("r", "reload"),
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
