package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/theme"
)

// EmailItem wraps a model.EmailSummary so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.EmailSummary
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string { return i.Email.Subject }

// Title returns the subject for the list.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns a short summary line for the list.
func (i EmailItem) Description() string {
	return i.Email.SenderName() + " | " + i.Email.Folder
}

// EmailDelegate implements list.ItemDelegate for rendering email rows.
type EmailDelegate struct{}

// Height returns the number of lines each item takes.
func (d EmailDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d EmailDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d EmailDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row: date, sender, subject, folder and AI tag.
func (d EmailDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := it.Email

	date := theme.DimmedStyle.Width(9).Render(shortDate(e.Date.Time, time.Now()))

	sender := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(22).
		MaxWidth(22).
		Render(e.SenderName())

	category := theme.CategoryStyle(e.AICategory).Render(e.Category())
	folder := theme.DimmedStyle.Render(e.Folder)

	subject := e.Subject
	if subject == "" {
		subject = theme.HelpStyle.Render("(no subject)")
	}

	line := fmt.Sprintf("%s %s %s %s %s", date, sender, category, subject, folder)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// shortDate formats t relative to now: a clock time for today, a month
// and day within the year, otherwise a full date.
func shortDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	t = t.In(now.Location())
	switch {
	case t.Year() == now.Year() && t.YearDay() == now.YearDay():
		return t.Format("15:04")
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("2006-01-02")
	}
}
