package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	facts  [][2]string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetFacts replaces the label/value lines shown under the shortcuts,
// such as the backend URL and the sync window.
func (m *Model) SetFacts(facts [][2]string) {
	m.facts = facts
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	sections := []string{title, helpText}
	if len(m.facts) > 0 {
		labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
		valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

		sections = append(sections, "")
		for _, f := range m.facts {
			sections = append(sections, labelStyle.Render(f[0])+valStyle.Render(f[1]))
		}
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
