// Package webhook edits the URL notified by mark-interested.
package webhook

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/theme"
)

// SubmitMsg carries the edited URL; an empty URL clears the webhook.
type SubmitMsg struct {
	URL string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// Model is the webhook URL form.
type Model struct {
	form  *huh.Form
	value *string
	width int
}

// New creates a new webhook form model.
func New(width int) Model {
	return Model{value: new(string), width: width}
}

// Start opens the form with the current URL.
func (m *Model) Start(current string) tea.Cmd {
	*m.value = current
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Webhook URL").
				Description("Notified when an email is marked interesting. Leave blank to clear.").
				Placeholder("https://webhook.site/...").
				Value(m.value).
				Validate(Validate),
		),
	).WithWidth(min(max(m.width-4, 40), 100))
	return m.form.Init()
}

// Validate accepts an empty string or an absolute http(s) URL.
func Validate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}

// Update handles messages for the webhook form.
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
		submit := SubmitMsg{URL: strings.TrimSpace(*m.value)}
		m.form = nil
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the webhook form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(theme.TitleStyle.Render("Webhook") + "\n" + m.form.View())
}

// SetSize updates the form width.
func (m *Model) SetSize(width int) {
	m.width = width
}
