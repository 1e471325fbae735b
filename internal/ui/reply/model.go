package reply

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// Model shows a suggested reply next to the email it answers.
type Model struct {
	email    model.EmailSummary
	text     string
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new reply viewer.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reply viewer.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reply viewer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reply viewer.
func (m Model) View() string {
	if m.loading {
		return theme.EmptyStyle(m.width, m.height).Render("Asking for a reply suggestion...")
	}
	return m.viewport.View()
}

// SetPending shows the loading state for email while the request runs.
func (m *Model) SetPending(email model.EmailSummary) {
	m.email = email
	m.text = ""
	m.loading = true
}

// SetSuggestion displays text as the suggested reply to email.
func (m *Model) SetSuggestion(email model.EmailSummary, text string) {
	m.email = email
	m.text = text
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Loading reports whether the viewer is waiting for a suggestion.
func (m Model) Loading() bool {
	return m.loading
}

// EmailID returns the id of the email being answered.
func (m Model) EmailID() string {
	return m.email.ID
}

// renderContent builds the full content string for the viewport.
func (m Model) renderContent() string {
	e := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render("Re: "+subject))
	sections = append(sections, theme.CategoryStyle(e.AICategory).Render(e.Category()))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(8)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	row("From:", e.Sender)
	row("Folder:", e.Folder)
	if !e.Date.IsZero() {
		row("Date:", e.Date.Local().Format("2006-01-02 15:04"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, headerStyle.Render("Suggested reply"))

	body := m.text
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("The backend returned an empty suggestion.")
	} else {
		body = lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(body)
	}
	sections = append(sections, body)
	sections = append(sections, "", theme.HelpStyle.Render(fmt.Sprintf("email %s", e.ID)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the viewer dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if !m.loading && m.email.ID != "" {
		m.viewport.SetContent(m.renderContent())
	}
}
