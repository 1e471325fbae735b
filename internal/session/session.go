// Package session owns the client-side state of a onebox session: the
// selection, the account directory, the folder index, the result set,
// the new-account draft and the outcome of one-shot actions.
//
// All mutation happens in Update and in the methods called from it.
// Remote calls run inside tea.Cmd functions that capture plain values
// and report back with the messages declared in messages.go.
package session

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/store"
	"github.com/nhle/onebox/internal/sync"
)

var (
	ErrNoAccountSelected    = errors.New("no account selected")
	ErrAgendaFieldsRequired = errors.New("agenda title and content are required")
	ErrNoEmail              = errors.New("no email selected")
	ErrSubmitInProgress     = errors.New("account submission already in progress")
)

// Gateway is the backend surface the session depends on.
type Gateway interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	CreateAccount(ctx context.Context, draft model.AccountDraft) (*model.Account, error)
	ListFolders(ctx context.Context, accountID string) ([]model.FolderSummary, error)
	ListEmails(ctx context.Context, query model.EmailQuery) (*model.EmailPage, error)
	StartSync(ctx context.Context, accountID string, days int) error
	MarkInterested(ctx context.Context, emailID, webhookURL string) error
	SuggestReply(ctx context.Context, emailID string) (string, error)
	CreateAgenda(ctx context.Context, title, content string) error
}

// Verifier checks a draft's credentials before it is submitted.
type Verifier interface {
	Verify(ctx context.Context, draft model.AccountDraft) error
}

// WebhookStore persists the webhook URL between sessions.
type WebhookStore interface {
	SaveWebhook(url string) error
}

// NoticeLevel distinguishes informational notices from errors.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is the most recent user-facing message.
type Notice struct {
	Level NoticeLevel
	Text  string
	At    time.Time
}

// Suggestion is an AI-drafted reply returned by the backend.
type Suggestion struct {
	EmailID string
	Text    string
}

// Options configures a Session.
type Options struct {
	Gateway  Gateway
	Sync     sync.Options
	Timeout  time.Duration
	Journal  store.Store
	Verifier Verifier
	Webhooks WebhookStore
	Webhook  string
	Logger   logrus.FieldLogger
}

// Session is the explicit state container shared by the views.
type Session struct {
	gw       Gateway
	sync     *sync.Orchestrator
	journal  store.Store
	verifier Verifier
	webhooks WebhookStore
	log      logrus.FieldLogger
	timeout  time.Duration

	sel      Selection
	accounts directory
	folders  folderIndex
	emails   resultSet

	draft      model.AccountDraft
	submitting bool
	webhook    string
	notice     Notice
	suggestion Suggestion
	unread     int
	version    uint64
}

// New creates a Session and wires the selection subscribers.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	syncOpts := opts.Sync
	if syncOpts.Journal == nil {
		syncOpts.Journal = opts.Journal
	}
	if syncOpts.Logger == nil {
		syncOpts.Logger = log
	}
	if syncOpts.Timeout <= 0 {
		syncOpts.Timeout = timeout
	}

	s := &Session{
		gw:       opts.Gateway,
		sync:     sync.New(opts.Gateway, syncOpts),
		journal:  opts.Journal,
		verifier: opts.Verifier,
		webhooks: opts.Webhooks,
		log:      log.WithField("component", "session"),
		timeout:  timeout,
		draft:    model.NewAccountDraft(),
		webhook:  opts.Webhook,
	}

	s.sel.Subscribe(FieldAccount, func(c Change) tea.Cmd {
		return s.refreshFolders(c.Current.AccountID)
	})
	s.sel.Subscribe(FieldAccount|FieldFolder|FieldSearch, func(c Change) tea.Cmd {
		return s.refreshEmails(queryFor(c.Current))
	})

	return s
}

// Init loads the account directory.
func (s *Session) Init() tea.Cmd {
	return s.RefreshAccounts()
}

// Update applies a message produced by one of the session's commands.
// Messages the session does not own are ignored.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AccountsLoadedMsg:
		return s.applyAccounts(msg)
	case FoldersLoadedMsg:
		return s.applyFolders(msg)
	case EmailsLoadedMsg:
		return s.applyEmails(msg)
	case ActivityLoadedMsg:
		s.applyActivity(msg)
		return nil
	case WebhookSavedMsg:
		if msg.Err != nil {
			s.fail("saving webhook", msg.Err)
		}
		return nil
	case AccountCreatedMsg:
		return tea.Batch(s.applyAccountCreated(msg), s.CountActivity())
	case InterestedMsg:
		return tea.Batch(s.applyInterested(msg), s.CountActivity())
	case SuggestionMsg:
		return tea.Batch(s.applySuggestion(msg), s.CountActivity())
	case AgendaSavedMsg:
		return tea.Batch(s.applyAgendaSaved(msg), s.CountActivity())
	case sync.StartedMsg:
		cmd := s.sync.Started(msg)
		if cmd == nil {
			return nil
		}
		if msg.Err != nil {
			s.fail("starting sync", msg.Err)
		}
		s.bump()
		return tea.Batch(cmd, s.CountActivity())
	case sync.SettledMsg:
		return s.applySettled(msg)
	}
	return nil
}

// Selection returns the current (account, folder, search) triple.
func (s *Session) Selection() Snapshot { return s.sel.Current() }

// Accounts returns the cached account directory.
func (s *Session) Accounts() []model.Account { return s.accounts.items }

// SelectedAccount returns the selected account, if it is in the directory.
func (s *Session) SelectedAccount() (model.Account, bool) {
	id := s.sel.Current().AccountID
	for _, a := range s.accounts.items {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// Folders returns the folder index of the selected account.
func (s *Session) Folders() []model.FolderSummary { return s.folders.items }

// Emails returns the current result set.
func (s *Session) Emails() []model.EmailSummary { return s.emails.items }

// Total returns the backend's total count for the current result set.
func (s *Session) Total() int { return s.emails.total }

// Loading reports whether a result set refresh is outstanding.
func (s *Session) Loading() bool { return s.emails.loading }

// Sync returns the sync orchestrator.
func (s *Session) Sync() *sync.Orchestrator { return s.sync }

// Syncing reports whether a sync cycle is in flight.
func (s *Session) Syncing() bool { return s.sync.Syncing() }

// Webhook returns the webhook URL sent with mark-interested.
func (s *Session) Webhook() string { return s.webhook }

// Notice returns the most recent user-facing notice.
func (s *Session) Notice() Notice { return s.notice }

// Suggestion returns the most recent reply suggestion.
func (s *Session) Suggestion() Suggestion { return s.suggestion }

// Draft returns the new-account draft.
func (s *Session) Draft() model.AccountDraft { return s.draft }

// Submitting reports whether the draft is being submitted.
func (s *Session) Submitting() bool { return s.submitting }

// Journal returns the activity journal, which may be nil.
func (s *Session) Journal() store.Store { return s.journal }

// Version increases on every state change. Views compare it to decide
// whether to re-read the session.
func (s *Session) Version() uint64 { return s.version }

// ClearNotice dismisses the current notice.
func (s *Session) ClearNotice() {
	if s.notice.Text == "" {
		return
	}
	s.notice = Notice{}
	s.bump()
}

func (s *Session) bump() {
	s.version++
}

func (s *Session) inform(text string) {
	s.notice = Notice{Level: NoticeInfo, Text: text, At: time.Now()}
	s.bump()
}

func (s *Session) fail(op string, err error) {
	s.log.WithError(err).Warn(op)
	s.notice = Notice{Level: NoticeError, Text: op + ": " + err.Error(), At: time.Now()}
	s.bump()
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func queryFor(snap Snapshot) model.EmailQuery {
	return model.EmailQuery{
		AccountID: snap.AccountID,
		Folder:    snap.Folder,
		Search:    snap.Search,
	}
}
