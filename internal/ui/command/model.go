package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Known lists the palette commands with a one-line description.
var Known = [][2]string{
	{"sync", "sync the selected account"},
	{"search <text>", "search subject or body"},
	{"folder <name>", "show one folder"},
	{"all", "show all folders"},
	{"webhook <url>", "set the mark-interested webhook"},
	{"agenda", "add a meeting agenda"},
	{"account", "register a new account"},
	{"refresh", "reload accounts, folders and emails"},
	{"activity", "show the activity journal"},
	{"quit", "exit"},
}

// Parse splits a command line into a lower-cased name and the rest of
// the line, which keeps its case and inner spacing.
func Parse(line string) CommandMsg {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	return CommandMsg{
		Name: strings.ToLower(name),
		Arg:  strings.TrimSpace(arg),
	}
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line != "" {
				parsed := Parse(line)
				return m, func() tea.Msg {
					return parsed
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	input := m.input.View()

	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(16)
	lines := []string{title, input, ""}
	for _, k := range Known {
		lines = append(lines, nameStyle.Render(k[0])+theme.DimmedStyle.Render(k[1]))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
