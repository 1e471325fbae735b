package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/onebox/internal/keys"
	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/session"
	appsync "github.com/nhle/onebox/internal/sync"
	"github.com/nhle/onebox/internal/ui"
	"github.com/nhle/onebox/internal/ui/accountform"
	"github.com/nhle/onebox/internal/ui/activity"
	"github.com/nhle/onebox/internal/ui/agenda"
	"github.com/nhle/onebox/internal/ui/command"
	helpview "github.com/nhle/onebox/internal/ui/help"
	"github.com/nhle/onebox/internal/ui/inbox"
	"github.com/nhle/onebox/internal/ui/picker"
	"github.com/nhle/onebox/internal/ui/reply"
	"github.com/nhle/onebox/internal/ui/webhook"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewAccounts
	ViewFolders
	ViewAccountForm
	ViewAgenda
	ViewWebhook
	ViewReply
	ViewActivity
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. It routes session messages to the
// session, user input to the active view, and mirrors session state into
// the views whenever the session version changes.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	session      *session.Session
	cfg          model.AppConfig
	keys         *keys.KeyMap
	inbox        inbox.Model
	picker       picker.Model
	accountForm  accountform.Model
	agendaForm   agenda.Model
	webhookForm  webhook.Model
	reply        reply.Model
	activity     activity.Model
	helpView     helpview.Model
	commandView  command.Model
	seen         uint64
	ready        bool
}

// New creates a new root application model around s.
func New(s *session.Session, cfg model.AppConfig) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewInbox,
		session:     s,
		cfg:         cfg,
		keys:        k,
		inbox:       inbox.New(k, 80, 24),
		picker:      picker.New(k, 80, 24),
		accountForm: accountform.New(80, 24),
		agendaForm:  agenda.New(80, 24),
		webhookForm: webhook.New(80),
		reply:       reply.New(k, 80, 24),
		activity:    activity.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.helpView.SetFacts(m.facts())
	return m
}

// Init loads the account directory, which starts the selection cascade.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.session.Init(),
		m.session.CountActivity(),
	)
}

// Update handles messages and dispatches to the session or the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inbox.SetSize(contentWidth, contentHeight)
		m.picker.SetSize(contentWidth, contentHeight)
		m.accountForm.SetSize(contentWidth, contentHeight)
		m.agendaForm.SetSize(contentWidth, contentHeight)
		m.webhookForm.SetSize(contentWidth)
		m.reply.SetSize(contentWidth, contentHeight)
		m.activity.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case session.AccountsLoadedMsg, session.FoldersLoadedMsg, session.EmailsLoadedMsg,
		session.AccountCreatedMsg, session.InterestedMsg, session.AgendaSavedMsg,
		session.WebhookSavedMsg, appsync.StartedMsg, appsync.SettledMsg:
		return m.withSession(m.session.Update(msg))

	case session.SuggestionMsg:
		cmd := m.session.Update(msg)
		if m.currentView == ViewReply && m.reply.Loading() && m.reply.EmailID() == msg.EmailID {
			if msg.Err != nil {
				m.currentView = ViewInbox
			} else {
				email, _ := m.findEmail(msg.EmailID)
				m.reply.SetSuggestion(email, msg.Text)
			}
		}
		return m.withSession(cmd)

	case session.ActivityLoadedMsg:
		cmd := m.session.Update(msg)
		if msg.Err == nil && msg.Entries != nil {
			m.activity.SetEntries(msg.Entries)
		}
		return m.withSession(cmd)

	case inbox.SearchMsg:
		return m.withSession(m.session.Search(msg.Text))

	case picker.PickedMsg:
		m.currentView = ViewInbox
		switch msg.Kind {
		case picker.KindAccount:
			return m.withSession(m.session.SelectAccount(msg.Value))
		default:
			if msg.Value == "" {
				return m.withSession(m.session.ClearFolder())
			}
			return m.withSession(m.session.SelectFolder(msg.Value))
		}

	case accountform.SubmitMsg:
		m.currentView = ViewInbox
		m.session.SetDraft(msg.Draft)
		cmd, _ := m.session.SubmitDraft()
		return m.withSession(cmd)

	case agenda.SubmitMsg:
		m.currentView = ViewInbox
		cmd, _ := m.session.CreateAgenda(msg.Title, msg.Content)
		return m.withSession(cmd)

	case webhook.SubmitMsg:
		m.currentView = ViewInbox
		m.helpView.SetFacts(m.factsWithWebhook(msg.URL))
		return m.withSession(m.session.SetWebhook(msg.URL))

	case picker.CancelMsg, accountform.CancelMsg, agenda.CancelMsg,
		webhook.CancelMsg, reply.BackMsg, activity.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that switch views or trigger session
// operations. Keys typed into forms and inputs are left alone.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewHelp:
		if msg.String() == "?" || msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	case ViewCommand:
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	case ViewInbox:
		if m.inbox.Searching() {
			return m, nil, false
		}
	default:
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit, true

	case "?":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case "esc":
		m.session.ClearNotice()
		return m, nil, true

	case "a":
		return m, m.openAccounts(), true

	case "f":
		return m, m.openFolders(), true

	case "S":
		cmd, _ := m.session.StartSync()
		next, batch := m.withSession(cmd)
		return next, batch, true

	case "r":
		next, cmd := m.withSession(m.session.Search(m.session.Selection().Search))
		return next, cmd, true

	case "i":
		email, ok := m.inbox.SelectedEmail()
		if !ok {
			return m, nil, true
		}
		cmd, _ := m.session.MarkInterested(email.ID)
		next, batch := m.withSession(cmd)
		return next, batch, true

	case "s":
		email, ok := m.inbox.SelectedEmail()
		if !ok {
			return m, nil, true
		}
		cmd, err := m.session.SuggestReply(email.ID)
		if err == nil {
			m.reply.SetPending(email)
			m.currentView = ViewReply
		}
		next, batch := m.withSession(cmd)
		return next, batch, true

	case "g":
		m.currentView = ViewAgenda
		return m, m.agendaForm.Start(), true

	case "n":
		m.currentView = ViewAccountForm
		return m, m.accountForm.Start(m.session.Draft()), true

	case "w":
		m.currentView = ViewWebhook
		return m, m.webhookForm.Start(m.session.Webhook()), true

	case "l":
		m.currentView = ViewActivity
		return m, m.session.LoadActivity(true), true
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewAccounts, ViewFolders:
		m.picker, cmd = m.picker.Update(msg)
	case ViewAccountForm:
		m.accountForm, cmd = m.accountForm.Update(msg)
	case ViewAgenda:
		m.agendaForm, cmd = m.agendaForm.Update(msg)
	case ViewWebhook:
		m.webhookForm, cmd = m.webhookForm.Update(msg)
	case ViewReply:
		m.reply, cmd = m.reply.Update(msg)
	case ViewActivity:
		m.activity, cmd = m.activity.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// withSession mirrors session state into the views if it changed and
// batches cmd with anything the views need.
func (m Model) withSession(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if v := m.session.Version(); v != m.seen {
		m.seen = v
		m.inbox.SetSearch(m.session.Selection().Search)
		viewCmd := m.inbox.SetEmails(m.session.Emails(), m.session.Total(), m.session.Loading())
		return m, tea.Batch(cmd, viewCmd)
	}
	return m, cmd
}

func (m *Model) openAccounts() tea.Cmd {
	accounts := m.session.Accounts()
	options := make([]picker.Option, len(accounts))
	for i, a := range accounts {
		options[i] = picker.Option{Label: a.Label(), Detail: a.Host, Value: a.ID}
	}
	m.currentView = ViewAccounts
	return m.picker.Open(picker.KindAccount, "Accounts", options, m.session.Selection().AccountID)
}

func (m *Model) openFolders() tea.Cmd {
	folders := m.session.Folders()
	options := make([]picker.Option, 0, len(folders)+1)
	options = append(options, picker.Option{Label: "All folders", Value: ""})
	for _, f := range folders {
		options = append(options, picker.Option{
			Label:  f.Folder,
			Detail: fmt.Sprintf("(%d)", f.Count),
			Value:  f.Folder,
		})
	}
	m.currentView = ViewFolders
	return m.picker.Open(picker.KindFolder, "Folders", options, m.session.Selection().Folder)
}

func (m Model) findEmail(id string) (model.EmailSummary, bool) {
	for _, e := range m.session.Emails() {
		if e.ID == id {
			return e, true
		}
	}
	return model.EmailSummary{ID: id}, false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Onebox"
	if n := m.session.Unread(); n > 0 {
		headerTitle = fmt.Sprintf("Onebox [%d new]", n)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()

	var statusBar string
	notice := m.session.Notice()
	switch {
	case notice.Text != "" && notice.Level == session.NoticeError:
		statusBar = m.layout.RenderErrorBar(notice.Text)
	case notice.Text != "" && m.currentView == ViewInbox:
		statusBar = m.layout.RenderStatusBar(notice.Text)
	default:
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inbox.View()
	case ViewAccounts, ViewFolders:
		return m.picker.View()
	case ViewAccountForm:
		return m.accountForm.View()
	case ViewAgenda:
		return m.agendaForm.View()
	case ViewWebhook:
		return m.webhookForm.View()
	case ViewReply:
		return m.reply.View()
	case ViewActivity:
		return m.activity.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus describes the selection and the sync cycle for the header.
func (m Model) syncStatus() string {
	sel := m.session.Selection()

	var parts []string
	if a, ok := m.session.SelectedAccount(); ok {
		parts = append(parts, a.Label())
	} else if sel.AccountID != "" {
		parts = append(parts, sel.AccountID)
	} else {
		parts = append(parts, "no account")
	}

	if sel.Folder != "" {
		parts = append(parts, sel.Folder)
	} else {
		parts = append(parts, "all folders")
	}

	orch := m.session.Sync()
	switch {
	case orch.Syncing():
		parts = append(parts, "syncing ("+orch.State().String()+")")
	case !orch.LastSettled().IsZero():
		parts = append(parts, "synced "+orch.LastSettled().Format("15:04"))
	}

	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewAccounts, ViewFolders:
		return "enter choose | / filter | esc back"
	case ViewAccountForm, ViewAgenda, ViewWebhook:
		return "enter next | esc cancel"
	case ViewReply, ViewActivity:
		return "j/k scroll | esc back"
	default:
		if m.inbox.Searching() {
			return "enter search | esc cancel"
		}
		return "q quit | ? help | / search | a accounts | f folders | S sync | i interested | s suggest | g agenda"
	}
}

func (m Model) facts() [][2]string {
	return m.factsWithWebhook(m.session.Webhook())
}

func (m Model) factsWithWebhook(url string) [][2]string {
	if url == "" {
		url = "(not set)"
	}
	journal := m.cfg.Journal.Path
	if journal == "" || journal == ":memory:" {
		journal = "in memory"
	}
	return [][2]string{
		{"Backend", m.cfg.BackendURL},
		{"Sync window", fmt.Sprintf("%d days, settles after %s", m.cfg.Sync.Days, m.cfg.Sync.SettleDelay)},
		{"Webhook", url},
		{"Journal", journal},
	}
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case "sync":
		cmd, _ := m.session.StartSync()
		return m.withSession(cmd)
	case "search":
		return m.withSession(m.session.Search(c.Arg))
	case "folder":
		if c.Arg == "" {
			return m.withSession(m.session.ClearFolder())
		}
		return m.withSession(m.session.SelectFolder(c.Arg))
	case "all":
		return m.withSession(m.session.ClearFolder())
	case "webhook":
		if err := webhook.Validate(c.Arg); err != nil {
			m.currentView = ViewWebhook
			return m, m.webhookForm.Start(c.Arg)
		}
		m.helpView.SetFacts(m.factsWithWebhook(c.Arg))
		return m.withSession(m.session.SetWebhook(c.Arg))
	case "agenda":
		m.currentView = ViewAgenda
		return m, m.agendaForm.Start()
	case "account":
		m.currentView = ViewAccountForm
		return m, m.accountForm.Start(m.session.Draft())
	case "refresh":
		return m.withSession(tea.Batch(
			m.session.RefreshAccounts(),
			m.session.RefreshFolders(),
			m.session.RefreshEmails(),
		))
	case "activity":
		m.currentView = ViewActivity
		return m, m.session.LoadActivity(true)
	case "quit", "q":
		return m, tea.Quit
	default:
		return m, nil
	}
}
