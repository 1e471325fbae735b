// Package picker is a single-choice list used for the account and folder
// selectors.
package picker

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/theme"
)

// Kind tells the parent which selection a pick applies to.
type Kind int

const (
	KindAccount Kind = iota
	KindFolder
)

// Option is one selectable row.
type Option struct {
	Label  string
	Detail string
	Value  string
}

// FilterValue returns the string used for fuzzy filtering.
func (o Option) FilterValue() string { return o.Label }

// PickedMsg is sent when the user chooses an option.
type PickedMsg struct {
	Kind  Kind
	Value string
}

// CancelMsg is sent when the user leaves without choosing.
type CancelMsg struct{}

type delegate struct {
	current *string
}

func (d delegate) Height() int                             { return 1 }
func (d delegate) Spacing() int                            { return 0 }
func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	o, ok := item.(Option)
	if !ok {
		return
	}

	marker := " "
	if d.current != nil && o.Value == *d.current {
		marker = "●"
	}

	line := fmt.Sprintf("%s %s", marker, o.Label)
	if o.Detail != "" {
		line += "  " + theme.DimmedStyle.Render(o.Detail)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the picker view.
type Model struct {
	kind    Kind
	list    list.Model
	keys    *keys.KeyMap
	current *string
	width   int
	height  int
}

// New creates an empty picker.
func New(k *keys.KeyMap, width, height int) Model {
	current := new(string)
	l := list.New([]list.Item{}, delegate{current: current}, width, height)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		keys:    k,
		current: current,
		width:   width,
		height:  height,
	}
}

// Open fills the picker and moves the cursor to the current value.
func (m *Model) Open(kind Kind, title string, options []Option, current string) tea.Cmd {
	m.kind = kind
	*m.current = current
	m.list.Title = title
	m.list.ResetFilter()

	items := make([]list.Item, len(options))
	cursor := 0
	for i, o := range options {
		items[i] = o
		if o.Value == current {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Select):
			o, ok := m.list.SelectedItem().(Option)
			if !ok {
				return m, nil
			}
			picked := PickedMsg{Kind: m.kind, Value: o.Value}
			return m, func() tea.Msg { return picked }

		case key.Matches(msg, m.keys.Back) && m.list.FilterState() == list.Unfiltered:
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the picker.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return theme.EmptyStyle(m.width, m.height).Render("Nothing to choose from yet.")
	}
	return m.list.View()
}

// SetSize updates the picker dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
