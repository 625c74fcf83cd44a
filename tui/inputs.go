package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zeptools/legalgram/docs"
)

// input unifies single-line and multiline editors.
type input interface {
	Focus() tea.Cmd
	Blur()
	Value() string
	Update(tea.Msg) (input, tea.Cmd)
	View() string
}

type lineInput struct{ textinput.Model }

func (l *lineInput) Update(msg tea.Msg) (input, tea.Cmd) {
	var cmd tea.Cmd
	l.Model, cmd = l.Model.Update(msg)
	return l, cmd
}

type areaInput struct{ textarea.Model }

func (a *areaInput) Update(msg tea.Msg) (input, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

func newInput(f docs.Field, value string, width int) input {
	if f.Multiline {
		ta := textarea.New()
		ta.Placeholder = f.Placeholder
		ta.ShowLineNumbers = false
		ta.SetWidth(width)
		ta.SetHeight(4)
		ta.SetValue(value)
		return &areaInput{ta}
	}
	ti := textinput.New()
	ti.Placeholder = f.Placeholder
	ti.Width = width
	ti.SetValue(value)
	return &lineInput{ti}
}
