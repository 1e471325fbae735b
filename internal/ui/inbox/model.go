package inbox

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/theme"
)

// SearchMsg is sent when the user submits the search input.
type SearchMsg struct {
	Text string
}

// Model is the email list view. It renders whatever result set the
// session holds; it never queries the backend itself.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	spinner     spinner.Model
	loading     bool
	total       int
	search      string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new inbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, EmailDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("email", "emails")

	si := textinput.New()
	si.Placeholder = "search subject or body..."
	si.Prompt = "/ "
	si.Width = width - 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorIndigo)

	return Model{
		list:        l,
		keys:        k,
		spinner:     sp,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetEmails replaces the rows. The cursor stays on the same index when
// the new list is long enough.
func (m *Model) SetEmails(emails []model.EmailSummary, total int, loading bool) tea.Cmd {
	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = EmailItem{Email: e}
	}
	m.total = total

	cmds := []tea.Cmd{m.list.SetItems(items)}
	if loading && !m.loading {
		cmds = append(cmds, m.spinner.Tick)
	}
	m.loading = loading
	return tea.Batch(cmds...)
}

// SetSearch mirrors the session's search text into the title.
func (m *Model) SetSearch(text string) {
	m.search = text
	if text == "" {
		m.list.Title = "Inbox"
		return
	}
	m.list.Title = fmt.Sprintf("Inbox: %q", text)
}

// SelectedEmail returns the email under the cursor.
func (m Model) SelectedEmail() (model.EmailSummary, bool) {
	it, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return model.EmailSummary{}, false
	}
	return it.Email, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		text := m.searchInput.Value()
		m.searchInput.Blur()
		return m, func() tea.Msg {
			return SearchMsg{Text: text}
		}

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Search) {
		m.searchMode = true
		m.searchInput.SetValue(m.search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox view.
func (m Model) View() string {
	var top string
	switch {
	case m.searchMode:
		top = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	case m.loading:
		top = lipgloss.NewStyle().
			Padding(0, 1).
			Render(m.spinner.View() + " Loading...")
	default:
		top = theme.DimmedStyle.
			Padding(0, 1).
			Render(fmt.Sprintf("%d shown of %d", len(m.list.Items()), m.total))
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, m.renderEmptyState())
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, m.list.View())
}

// renderEmptyState shows guidance text when there are no emails.
func (m Model) renderEmptyState() string {
	style := theme.EmptyStyle(m.width, m.height-1)

	if m.loading {
		return style.Render("")
	}
	if m.search != "" {
		return style.Render("No emails match your search.")
	}
	return style.Render(
		"No emails.\n\n" +
			"Press S to sync the selected account, or n to add one.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-1)
	m.searchInput.Width = width - 4
}
