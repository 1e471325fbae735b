package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/store"
)

// ActivityLoadedMsg carries a page of the activity journal.
type ActivityLoadedMsg struct {
	Entries    []model.Activity
	Unread     int
	MarkedRead bool
	Err        error
}

const activityPageSize = 200

// LoadActivity reads the most recent journal entries and the unread count.
// When markRead is set the entries are marked read after being read, so
// the returned Unread is the count before opening.
func (s *Session) LoadActivity(markRead bool) tea.Cmd {
	journal := s.journal
	if journal == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entries, err := journal.GetActivity(ctx, store.ActivityFilter{Limit: activityPageSize})
		if err != nil {
			return ActivityLoadedMsg{Err: err}
		}
		unread, err := journal.CountUnread(ctx)
		if err != nil {
			return ActivityLoadedMsg{Err: err}
		}
		if markRead && unread > 0 {
			if err := journal.MarkAllRead(ctx); err != nil {
				return ActivityLoadedMsg{Err: err}
			}
		}
		return ActivityLoadedMsg{Entries: entries, Unread: unread, MarkedRead: markRead}
	}
}

// CountActivity refreshes the unread badge without reading entries.
func (s *Session) CountActivity() tea.Cmd {
	journal := s.journal
	if journal == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		unread, err := journal.CountUnread(ctx)
		return ActivityLoadedMsg{Unread: unread, Err: err}
	}
}

// Unread returns the number of journal entries not yet seen.
func (s *Session) Unread() int { return s.unread }

func (s *Session) applyActivity(msg ActivityLoadedMsg) {
	if msg.Err != nil {
		s.log.WithError(msg.Err).Warn("reading activity journal")
		return
	}
	unread := msg.Unread
	if msg.MarkedRead {
		unread = 0
	}
	if unread != s.unread {
		s.unread = unread
		s.bump()
	}
}
