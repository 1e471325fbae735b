package app_test

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/app"
	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/session"
	appsync "github.com/nhle/onebox/internal/sync"
	"github.com/nhle/onebox/internal/ui/command"
	"github.com/nhle/onebox/internal/ui/picker"
	"github.com/nhle/onebox/tests/testutil"
)

type stubGateway struct {
	mu    gosync.Mutex
	calls []string
	last  model.EmailQuery
}

func (g *stubGateway) note(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
}

func (g *stubGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (g *stubGateway) ListAccounts(context.Context) ([]model.Account, error) {
	g.note("ListAccounts")
	return []model.Account{
		{ID: "a1", Username: "me@example.com", Description: "Personal"},
		{ID: "a2", Username: "work@example.com"},
	}, nil
}

func (g *stubGateway) CreateAccount(_ context.Context, d model.AccountDraft) (*model.Account, error) {
	g.note("CreateAccount")
	return &model.Account{ID: "a3", Username: d.Username}, nil
}

func (g *stubGateway) ListFolders(_ context.Context, accountID string) ([]model.FolderSummary, error) {
	g.note("ListFolders")
	return []model.FolderSummary{
		{AccountID: accountID, Folder: "INBOX", Count: 2},
		{AccountID: accountID, Folder: "Archive", Count: 1},
	}, nil
}

func (g *stubGateway) ListEmails(_ context.Context, q model.EmailQuery) (*model.EmailPage, error) {
	g.note("ListEmails")
	g.mu.Lock()
	g.last = q
	g.mu.Unlock()
	items := []model.EmailSummary{
		{ID: "e1-" + q.Folder, Folder: q.Folder, Subject: "Hello"},
		{ID: "e2-" + q.Folder, Folder: q.Folder, Subject: "Meeting"},
	}
	return &model.EmailPage{Items: items, Total: 7}, nil
}

func (g *stubGateway) StartSync(context.Context, string, int) error {
	g.note("StartSync")
	return nil
}

func (g *stubGateway) MarkInterested(context.Context, string, string) error {
	g.note("MarkInterested")
	return nil
}

func (g *stubGateway) SuggestReply(context.Context, string) (string, error) {
	g.note("SuggestReply")
	return "Thanks, sounds good.", nil
}

func (g *stubGateway) CreateAgenda(context.Context, string, string) error {
	g.note("CreateAgenda")
	return nil
}

func (g *stubGateway) lastQuery() model.EmailQuery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// drive runs cmd and feeds back the session messages it produces, the
// way the Bubble Tea runtime would.
func drive(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 1000, "message loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case session.AccountsLoadedMsg, session.FoldersLoadedMsg, session.EmailsLoadedMsg,
			session.AccountCreatedMsg, session.InterestedMsg, session.SuggestionMsg,
			session.AgendaSavedMsg, session.WebhookSavedMsg, session.ActivityLoadedMsg,
			appsync.StartedMsg, appsync.SettledMsg:
			var c tea.Cmd
			m, c = m.Update(msg)
			queue = append(queue, c)
		}
	}
	return m
}

func newApp(t *testing.T) (tea.Model, *session.Session, *stubGateway) {
	t.Helper()

	gw := &stubGateway{}
	logger, _ := test.NewNullLogger()
	s := session.New(session.Options{
		Gateway: gw,
		Sync:    appsync.Options{SettleDelay: time.Millisecond},
		Journal: testutil.NewTestJournal(t),
		Logger:  logger,
	})

	cfg := model.AppConfig{BackendURL: "http://localhost:8000"}
	var m tea.Model = app.New(s, cfg)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = drive(t, m, m.Init())
	return m, s, gw
}

func press(t *testing.T, m tea.Model, key string) tea.Model {
	t.Helper()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return drive(t, m, cmd)
}

func TestInitSelectsFirstAccountAndFolder(t *testing.T) {
	m, s, _ := newApp(t)

	sel := s.Selection()
	assert.Equal(t, "a1", sel.AccountID)
	assert.Equal(t, "INBOX", sel.Folder)
	require.Len(t, s.Emails(), 2)

	view := m.View()
	assert.Contains(t, view, "Personal")
	assert.Contains(t, view, "INBOX")
	assert.Contains(t, view, "Hello")
}

func TestPickFolderAndAllFolders(t *testing.T) {
	m, s, gw := newApp(t)

	m = press(t, m, "f")
	assert.Contains(t, m.View(), "All folders")

	m, cmd := m.Update(picker.PickedMsg{Kind: picker.KindFolder, Value: "Archive"})
	m = drive(t, m, cmd)
	assert.Equal(t, "Archive", s.Selection().Folder)
	assert.Equal(t, "Archive", gw.lastQuery().Folder)

	m, cmd = m.Update(picker.PickedMsg{Kind: picker.KindFolder, Value: ""})
	m = drive(t, m, cmd)
	assert.Empty(t, s.Selection().Folder)
	assert.Empty(t, gw.lastQuery().Folder)
	assert.Contains(t, m.View(), "all folders")
}

func TestPickAccountReloadsFolders(t *testing.T) {
	m, s, gw := newApp(t)
	before := gw.count("ListFolders")

	m, cmd := m.Update(picker.PickedMsg{Kind: picker.KindAccount, Value: "a2"})
	m = drive(t, m, cmd)

	assert.Equal(t, "a2", s.Selection().AccountID)
	assert.Equal(t, before+1, gw.count("ListFolders"))
	assert.Contains(t, m.View(), "work@example.com")
}

func TestSyncKeyRunsCycleAndRefreshes(t *testing.T) {
	m, s, gw := newApp(t)
	emailsBefore := gw.count("ListEmails")

	m = press(t, m, "S")

	assert.Equal(t, 1, gw.count("StartSync"))
	assert.False(t, s.Syncing())
	assert.Greater(t, gw.count("ListEmails"), emailsBefore)
	assert.Contains(t, m.View(), "synced")
}

func TestMarkInterestedUsesSelectedEmail(t *testing.T) {
	m, s, gw := newApp(t)

	m = press(t, m, "i")

	assert.Equal(t, 1, gw.count("MarkInterested"))
	assert.Equal(t, session.NoticeInfo, s.Notice().Level)
	assert.Positive(t, s.Unread())
	assert.Contains(t, m.View(), "new]")
}

func TestSuggestReplyShowsSuggestion(t *testing.T) {
	m, _, gw := newApp(t)

	m = press(t, m, "s")

	assert.Equal(t, 1, gw.count("SuggestReply"))
	assert.Contains(t, m.View(), "Thanks, sounds good.")
}

func TestCommandPaletteSearch(t *testing.T) {
	m, s, gw := newApp(t)

	m, cmd := m.Update(command.CommandMsg{Name: "search", Arg: "invoice"})
	drive(t, m, cmd)

	assert.Equal(t, "invoice", s.Selection().Search)
	assert.Equal(t, "invoice", gw.lastQuery().Search)
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newApp(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
