// Package tui is the terminal form-filling wizard.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/forms"
)

const defaultInputWidth = 60

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	stepStyle    = lipgloss.NewStyle().Faint(true)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	focusedLabel = labelStyle.Foreground(lipgloss.Color("205"))
	hintStyle    = lipgloss.NewStyle().Faint(true).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Model walks a wizard session through the steps of a definition.
type Model struct {
	def     *docs.Definition
	session *forms.Session
	fields  []docs.Field
	inputs  []input
	focus   int
	keys    keyMap
	help    help.Model
	width   int
	status  string

	generate bool
	quit     bool
}

var _ tea.Model = Model{}

func New(def *docs.Definition, session *forms.Session) Model {
	m := Model{
		def:     def,
		session: session,
		keys:    newKeyMap(session.Seq.Mode() == forms.ModeFree),
		help:    help.New(),
		width:   defaultInputWidth,
	}
	m.loadStep()
	return m
}

// Session returns the session with every edit committed.
func (m Model) Session() *forms.Session {
	m.commit()
	return m.session
}

// Generate reports whether the user asked for the document before leaving.
func (m Model) Generate() bool {
	return m.generate
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) loadStep() {
	m.fields = nil
	m.inputs = nil
	m.focus = 0
	if i := m.session.Seq.Current() - 1; i < len(m.def.Steps) {
		m.fields = m.def.Steps[i].Fields
	}
	for _, f := range m.fields {
		m.inputs = append(m.inputs, newInput(f, m.session.State.Get(f.Name), m.width))
	}
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

// commit copies the editors of the current step into the form state.
func (m *Model) commit() {
	for i, f := range m.fields {
		_ = m.session.State.Set(f.Name, m.inputs[i].Value())
	}
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *Model) changeStep(move func() error) {
	m.commit()
	before := m.session.Seq.Current()
	if err := move(); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	if m.session.Seq.Current() != before {
		m.loadStep()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(20, min(msg.Width-4, 100))
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		seq := m.session.Seq
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.commit()
			m.quit = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Generate):
			m.commit()
			if !seq.CanGenerate() {
				if seq.Mode() == forms.ModeFree {
					m.status = "visit every step before generating"
				} else {
					m.status = "reach the last step before generating"
				}
				return m, nil
			}
			m.generate = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextStep):
			m.changeStep(func() error { seq.Next(); return nil })
			return m, nil
		case key.Matches(msg, m.keys.PrevStep):
			m.changeStep(func() error { seq.Back(); return nil })
			return m, nil
		case key.Matches(msg, m.keys.Jump):
			k := int(msg.String()[len("alt+")] - '0')
			m.changeStep(func() error { return seq.Goto(k) })
			return m, nil
		case key.Matches(msg, m.keys.NextField):
			return m, m.moveFocus(1)
		case key.Matches(msg, m.keys.PrevField):
			return m, m.moveFocus(-1)
		case msg.Type == tea.KeyEnter && m.focusedSingleLine():
			if m.focus == len(m.inputs)-1 && !seq.IsLast() {
				m.changeStep(func() error { seq.Next(); return nil })
				return m, nil
			}
			return m, m.moveFocus(1)
		}
	}
	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusedSingleLine() bool {
	if len(m.inputs) == 0 {
		return false
	}
	_, ok := m.inputs[m.focus].(*lineInput)
	return ok
}

func (m Model) View() string {
	if m.quit || m.generate {
		return ""
	}
	var b strings.Builder
	seq := m.session.Seq
	b.WriteString(titleStyle.Render(m.def.Title))
	b.WriteString("\n")
	stepTitle := ""
	if i := seq.Current() - 1; i < len(m.def.Steps) {
		stepTitle = m.def.Steps[i].Title
	}
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", seq.Current(), seq.Count(), stepTitle)))
	b.WriteString("\n\n")
	for i, f := range m.fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		if i == m.focus {
			b.WriteString(focusedLabel.Render("> " + label))
		} else {
			b.WriteString(labelStyle.Render("  " + label))
		}
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if f.Hint != "" {
			b.WriteString(hintStyle.Render(f.Hint))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	switch {
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	case seq.CanGenerate():
		b.WriteString(readyStyle.Render("ready: press ctrl+s to generate"))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run fills session interactively on the terminal and reports whether the user asked to generate.
func Run(def *docs.Definition, session *forms.Session, opts ...tea.ProgramOption) (*forms.Session, bool, error) {
	final, err := tea.NewProgram(New(def, session), opts...).Run()
	if err != nil {
		return nil, false, err
	}
	m := final.(Model)
	return m.Session(), m.Generate(), nil
}
