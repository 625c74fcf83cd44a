package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextStep  key.Binding
	PrevStep  key.Binding
	Jump      key.Binding
	Generate  key.Binding
	Quit      key.Binding
}

func newKeyMap(free bool) keyMap {
	k := keyMap{
		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		NextStep:  key.NewBinding(key.WithKeys("ctrl+n", "pgdown"), key.WithHelp("ctrl+n", "next step")),
		PrevStep:  key.NewBinding(key.WithKeys("ctrl+b", "pgup"), key.WithHelp("ctrl+b", "back")),
		Jump: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
			key.WithHelp("alt+1..9", "go to step"),
		),
		Generate: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
	k.Jump.SetEnabled(free)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.NextStep, k.PrevStep, k.Jump, k.Generate, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField},
		{k.NextStep, k.PrevStep, k.Jump},
		{k.Generate, k.Quit},
	}
}
