package session

import tea "github.com/charmbracelet/bubbletea"

// Field identifies a component of the selection.
type Field int

const (
	FieldAccount Field = 1 << iota
	FieldFolder
	FieldSearch
)

// Snapshot is the (account, folder, search) triple the user is viewing.
// An empty folder means all folders; an empty search means unfiltered.
type Snapshot struct {
	AccountID string
	Folder    string
	Search    string
}

// Change describes a published selection update.
type Change struct {
	Fields   Field
	Previous Snapshot
	Current  Snapshot
}

// Has reports whether f changed.
func (c Change) Has(f Field) bool {
	return c.Fields&f != 0
}

// Subscriber reacts to a selection change and may return a command.
type Subscriber func(Change) tea.Cmd

type subscription struct {
	mask Field
	fn   Subscriber
}

// Selection holds what the user is viewing and publishes every change
// to its subscribers. Each subscriber is called at most once per change.
type Selection struct {
	cur  Snapshot
	subs []subscription
}

// Subscribe registers fn for changes touching any field in mask.
func (s *Selection) Subscribe(mask Field, fn Subscriber) {
	s.subs = append(s.subs, subscription{mask: mask, fn: fn})
}

// Current returns the current selection.
func (s *Selection) Current() Snapshot {
	return s.cur
}

// SetAccount selects an account. The folder is cleared with it, since
// folder names belong to the previously selected account.
func (s *Selection) SetAccount(id string) tea.Cmd {
	if id == s.cur.AccountID {
		return nil
	}
	prev := s.cur
	fields := FieldAccount
	if s.cur.Folder != "" {
		fields |= FieldFolder
	}
	s.cur.AccountID = id
	s.cur.Folder = ""
	return s.publish(prev, fields)
}

// SetFolder selects a folder of the current account.
func (s *Selection) SetFolder(name string) tea.Cmd {
	if name == s.cur.Folder {
		return nil
	}
	prev := s.cur
	s.cur.Folder = name
	return s.publish(prev, FieldFolder)
}

// ClearFolder selects all folders.
func (s *Selection) ClearFolder() tea.Cmd {
	return s.SetFolder("")
}

// SetSearch sets the search text.
func (s *Selection) SetSearch(text string) tea.Cmd {
	if text == s.cur.Search {
		return nil
	}
	prev := s.cur
	s.cur.Search = text
	return s.publish(prev, FieldSearch)
}

func (s *Selection) publish(prev Snapshot, fields Field) tea.Cmd {
	change := Change{Fields: fields, Previous: prev, Current: s.cur}

	var cmds []tea.Cmd
	for _, sub := range s.subs {
		if sub.mask&fields == 0 {
			continue
		}
		cmds = append(cmds, sub.fn(change))
	}
	return tea.Batch(cmds...)
}
