// Package activity lists the journal of sync cycles and action outcomes.
package activity

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

// CloseMsg signals the parent to close the activity view.
type CloseMsg struct{}

// Model is the activity view.
type Model struct {
	entries  []model.Activity
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new activity view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetEntries replaces the listed entries, newest first.
func (m *Model) SetEntries(entries []model.Activity) {
	m.entries = entries
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Update handles messages for the activity view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return CloseMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity view.
func (m Model) View() string {
	if len(m.entries) == 0 {
		return theme.EmptyStyle(m.width, m.height).Render("No activity in this session yet.")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	lines := []string{theme.TitleStyle.Render("Activity")}

	newStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorYellow)
	kindStyle := lipgloss.NewStyle().Width(16)

	for _, a := range m.entries {
		marker := "  "
		if !a.Read {
			marker = newStyle.Render("• ")
		}

		outcome := a.Message
		if a.Failed() {
			outcome = a.Message + ": " + a.Error
		}

		line := fmt.Sprintf("%s%s %s %s%s",
			marker,
			theme.DimmedStyle.Render(a.CreatedAt.Local().Format("15:04:05")),
			kindStyle.Render(label(a.Kind)),
			theme.OutcomeStyle(a.Failed()).Render(outcome),
			target(a),
		)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func label(k model.ActivityKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

func target(a model.Activity) string {
	switch {
	case a.EmailID != "":
		return theme.DimmedStyle.Render("  email " + a.EmailID)
	case a.AccountID != "":
		return theme.DimmedStyle.Render("  account " + a.AccountID)
	default:
		return ""
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderContent())
}
