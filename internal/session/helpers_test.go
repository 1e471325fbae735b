package session_test

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/session"
	"github.com/nhle/onebox/internal/store"
	"github.com/nhle/onebox/internal/sync"
)

type call struct {
	method string
	arg    string
	query  model.EmailQuery
	body   string
}

type fakeGateway struct {
	mu gosync.Mutex

	accounts    []model.Account
	accountsErr error
	folders     map[string][]model.FolderSummary
	foldersErr  error
	emails      func(model.EmailQuery) []model.EmailSummary
	emailsErr   error
	createErr   error
	syncErr     error
	actionErr   error
	suggestion  string

	calls []call
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{folders: map[string][]model.FolderSummary{}}
}

func (f *fakeGateway) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeGateway) ListAccounts(context.Context) ([]model.Account, error) {
	f.record(call{method: "ListAccounts"})
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]model.Account(nil), f.accounts...), nil
}

func (f *fakeGateway) CreateAccount(_ context.Context, d model.AccountDraft) (*model.Account, error) {
	f.record(call{method: "CreateAccount", arg: d.Username})
	if f.createErr != nil {
		return nil, f.createErr
	}
	a := model.Account{
		ID:       "new-" + d.Username,
		Provider: d.Provider,
		Host:     d.Host,
		Port:     d.Port,
		Username: d.Username,
		UseSSL:   d.UseSSL,
	}
	f.mu.Lock()
	f.accounts = append(f.accounts, a)
	f.mu.Unlock()
	return &a, nil
}

func (f *fakeGateway) ListFolders(_ context.Context, accountID string) ([]model.FolderSummary, error) {
	f.record(call{method: "ListFolders", arg: accountID})
	if f.foldersErr != nil {
		return nil, f.foldersErr
	}
	return f.folders[accountID], nil
}

func (f *fakeGateway) ListEmails(_ context.Context, q model.EmailQuery) (*model.EmailPage, error) {
	f.record(call{method: "ListEmails", query: q, arg: q.Encode()})
	if f.emailsErr != nil {
		return nil, f.emailsErr
	}
	var items []model.EmailSummary
	if f.emails != nil {
		items = f.emails(q)
	}
	return &model.EmailPage{Items: items, Total: len(items)}, nil
}

func (f *fakeGateway) StartSync(_ context.Context, accountID string, _ int) error {
	f.record(call{method: "StartSync", arg: accountID})
	return f.syncErr
}

func (f *fakeGateway) MarkInterested(_ context.Context, emailID, webhookURL string) error {
	f.record(call{method: "MarkInterested", arg: emailID, body: webhookURL})
	return f.actionErr
}

func (f *fakeGateway) SuggestReply(_ context.Context, emailID string) (string, error) {
	f.record(call{method: "SuggestReply", arg: emailID})
	if f.actionErr != nil {
		return "", f.actionErr
	}
	return f.suggestion, nil
}

func (f *fakeGateway) CreateAgenda(_ context.Context, title, content string) error {
	f.record(call{method: "CreateAgenda", arg: title, body: content})
	return f.actionErr
}

// callsTo returns the recorded calls of one method.
func (f *fakeGateway) callsTo(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeGateway) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

type sessionOption func(*session.Options)

func withJournal(j store.Store) sessionOption {
	return func(o *session.Options) { o.Journal = j }
}

func withVerifier(v session.Verifier) sessionOption {
	return func(o *session.Options) { o.Verifier = v }
}

func withWebhook(url string, ws session.WebhookStore) sessionOption {
	return func(o *session.Options) {
		o.Webhook = url
		o.Webhooks = ws
	}
}

func newSession(t *testing.T, gw *fakeGateway, opts ...sessionOption) *session.Session {
	t.Helper()
	logger, _ := test.NewNullLogger()
	o := session.Options{
		Gateway: gw,
		Sync:    sync.Options{SettleDelay: time.Millisecond},
		Timeout: time.Second,
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return session.New(o)
}

// collect runs cmd and every command in the batches it returns, without
// feeding the resulting messages back into the session.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// settle feeds messages into the session until no command is left,
// the way the Bubble Tea runtime would.
func settle(t *testing.T, s *session.Session, cmd tea.Cmd) {
	t.Helper()
	queue := collect(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 1000, "message loop did not settle")
		msg := queue[0]
		queue = append(queue[1:], collect(s.Update(msg))...)
	}
}

// loaded returns a session whose initial cascade has completed.
func loaded(t *testing.T, gw *fakeGateway, opts ...sessionOption) *session.Session {
	t.Helper()
	s := newSession(t, gw, opts...)
	settle(t, s, s.Init())
	gw.reset()
	return s
}

func inbox(accountID string) *fakeGateway {
	gw := newFakeGateway()
	gw.accounts = []model.Account{{ID: accountID, Username: "me@example.com"}, {ID: "a2"}}
	gw.folders[accountID] = []model.FolderSummary{{Folder: "INBOX", Count: 5}, {Folder: "Archive", Count: 2}}
	gw.folders["a2"] = []model.FolderSummary{{Folder: "Work", Count: 1}}
	gw.emails = func(q model.EmailQuery) []model.EmailSummary {
		return []model.EmailSummary{{ID: "m-" + q.AccountID + "-" + q.Folder, Subject: q.Search}}
	}
	return gw
}
