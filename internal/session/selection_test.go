package session_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/onebox/internal/session"
)

func TestSelectionPublishesOnlyRealChanges(t *testing.T) {
	var sel session.Selection
	var changes []session.Change
	sel.Subscribe(session.FieldAccount|session.FieldFolder|session.FieldSearch, func(c session.Change) tea.Cmd {
		changes = append(changes, c)
		return nil
	})

	sel.SetAccount("a1")
	sel.SetAccount("a1")
	sel.SetFolder("INBOX")
	sel.SetFolder("INBOX")
	sel.SetSearch("")

	assert.Len(t, changes, 2)
	assert.True(t, changes[0].Has(session.FieldAccount))
	assert.True(t, changes[1].Has(session.FieldFolder))
	assert.Equal(t, session.Snapshot{AccountID: "a1", Folder: "INBOX"}, sel.Current())
}

func TestSelectionAccountChangeClearsFolder(t *testing.T) {
	var sel session.Selection
	sel.SetAccount("a1")
	sel.SetFolder("INBOX")
	sel.SetSearch("invoice")

	var got []session.Change
	sel.Subscribe(session.FieldFolder, func(c session.Change) tea.Cmd {
		got = append(got, c)
		return nil
	})

	sel.SetAccount("a2")

	assert.Equal(t, session.Snapshot{AccountID: "a2", Search: "invoice"}, sel.Current())
	if assert.Len(t, got, 1, "subscriber called once for a combined change") {
		assert.True(t, got[0].Has(session.FieldAccount))
		assert.True(t, got[0].Has(session.FieldFolder))
		assert.Equal(t, "INBOX", got[0].Previous.Folder)
	}
}

func TestSelectionSubscriberMasks(t *testing.T) {
	var sel session.Selection
	var accountCalls, searchCalls int
	sel.Subscribe(session.FieldAccount, func(session.Change) tea.Cmd {
		accountCalls++
		return nil
	})
	sel.Subscribe(session.FieldSearch, func(session.Change) tea.Cmd {
		searchCalls++
		return nil
	})

	sel.SetSearch("x")
	sel.SetFolder("Archive")
	sel.ClearFolder()
	sel.SetAccount("a1")

	assert.Equal(t, 1, accountCalls)
	assert.Equal(t, 1, searchCalls)
	assert.Empty(t, sel.Current().Folder)
}
