package reply

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/model"
)

func TestSuggestionRendered(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	email := model.EmailSummary{ID: "m1", Subject: "Interview", Sender: "Ann <ann@example.com>", AICategory: "Interested"}

	m.SetPending(email)
	assert.True(t, m.Loading())
	assert.Contains(t, m.View(), "Asking for a reply suggestion")

	m.SetSuggestion(email, "Thanks Ann, Tuesday works.")
	assert.False(t, m.Loading())
	assert.Equal(t, "m1", m.EmailID())

	view := m.View()
	assert.Contains(t, view, "Re: Interview")
	assert.Contains(t, view, "Thanks Ann, Tuesday works.")
}

func TestEscapeGoesBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
