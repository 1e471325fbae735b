package agenda

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/theme"
)

// SubmitMsg carries a completed agenda.
type SubmitMsg struct {
	Title   string
	Content string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type formBindings struct {
	title   string
	content string
}

// Model is the agenda form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new agenda form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start clears the form and focuses the title.
func (m *Model) Start() tea.Cmd {
	m.fb.title = ""
	m.fb.content = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Agenda title").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Agenda content").
				Placeholder("Include a cal.com link if applicable").
				Value(&m.fb.content).
				Validate(validateRequired("Content")),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the agenda form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := SubmitMsg{
			Title:   strings.TrimSpace(m.fb.title),
			Content: m.fb.content,
		}
		m.form = nil
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the agenda form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	content := theme.TitleStyle.Render("New Agenda") + "\n" + m.form.View()
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
