package session

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/store"
)

// SelectAccount switches the selected account, which resets the folder
// and refreshes the folder index and the result set.
func (s *Session) SelectAccount(id string) tea.Cmd {
	cmd := s.sel.SetAccount(id)
	s.bump()
	return cmd
}

// SelectFolder narrows the result set to a folder of the selected account.
func (s *Session) SelectFolder(name string) tea.Cmd {
	cmd := s.sel.SetFolder(name)
	s.bump()
	return cmd
}

// ClearFolder widens the result set to all folders.
func (s *Session) ClearFolder() tea.Cmd {
	cmd := s.sel.ClearFolder()
	s.bump()
	return cmd
}

// Search sets the search text as typed; matching is left to the backend.
// Searching for the current text again still re-queries the backend.
func (s *Session) Search(text string) tea.Cmd {
	if text == s.sel.Current().Search {
		return s.RefreshEmails()
	}
	cmd := s.sel.SetSearch(text)
	s.bump()
	return cmd
}

// StartSync begins a sync cycle for the selected account.
func (s *Session) StartSync() (tea.Cmd, error) {
	cmd, err := s.sync.Start(s.sel.Current().AccountID)
	if err != nil {
		s.fail("sync", err)
		return nil, err
	}
	s.inform(fmt.Sprintf("syncing the last %d days", s.sync.Days()))
	return cmd, nil
}

// MarkInterested flags an email and notifies the configured webhook. The
// result set is refreshed once the request completes, whatever its outcome.
func (s *Session) MarkInterested(emailID string) (tea.Cmd, error) {
	if emailID == "" {
		s.fail("mark interested", ErrNoEmail)
		return nil, ErrNoEmail
	}

	gw, timeout, webhook := s.gw, s.timeout, s.webhook
	journal, log := s.journal, s.log

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		err := gw.MarkInterested(ctx, emailID, webhook)
		store.Record(context.Background(), journal, log, model.Activity{
			Kind:    model.ActivityMarkInterested,
			EmailID: emailID,
			Message: "marked as interesting",
		}, err)
		return InterestedMsg{EmailID: emailID, Err: err}
	}, nil
}

// SuggestReply asks the backend for a drafted reply to an email.
func (s *Session) SuggestReply(emailID string) (tea.Cmd, error) {
	if emailID == "" {
		s.fail("suggest reply", ErrNoEmail)
		return nil, ErrNoEmail
	}

	gw, timeout := s.gw, s.timeout
	journal, log := s.journal, s.log

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		text, err := gw.SuggestReply(ctx, emailID)
		store.Record(context.Background(), journal, log, model.Activity{
			Kind:    model.ActivitySuggestReply,
			EmailID: emailID,
			Message: "reply suggested",
		}, err)
		return SuggestionMsg{EmailID: emailID, Text: text, Err: err}
	}, nil
}

// CreateAgenda records a meeting agenda. Nothing is sent unless both
// title and content are non-blank.
func (s *Session) CreateAgenda(title, content string) (tea.Cmd, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		s.fail("create agenda", ErrAgendaFieldsRequired)
		return nil, ErrAgendaFieldsRequired
	}

	gw, timeout := s.gw, s.timeout
	journal, log := s.journal, s.log

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		err := gw.CreateAgenda(ctx, title, content)
		store.Record(context.Background(), journal, log, model.Activity{
			Kind:    model.ActivityAgendaSaved,
			Message: fmt.Sprintf("agenda %q saved", title),
		}, err)
		return AgendaSavedMsg{Title: title, Err: err}
	}, nil
}

// SetWebhook replaces the webhook URL used by mark-interested and saves
// it for later sessions. A blank URL clears it.
func (s *Session) SetWebhook(url string) tea.Cmd {
	url = strings.TrimSpace(url)
	s.webhook = url
	if url == "" {
		s.inform("webhook cleared")
	} else {
		s.inform("webhook set to " + url)
	}

	ws := s.webhooks
	if ws == nil {
		return nil
	}
	return func() tea.Msg {
		return WebhookSavedMsg{URL: url, Err: ws.SaveWebhook(url)}
	}
}

// SetDraft replaces the new-account draft.
func (s *Session) SetDraft(d model.AccountDraft) {
	s.draft = d
	s.bump()
}

// ResetDraft restores the draft defaults.
func (s *Session) ResetDraft() {
	s.SetDraft(model.NewAccountDraft())
}

// SubmitDraft registers the draft as a new account. When a verifier is
// configured the IMAP login is checked first. The draft is reset only
// after the backend accepts it.
func (s *Session) SubmitDraft() (tea.Cmd, error) {
	if s.submitting {
		return nil, ErrSubmitInProgress
	}
	s.submitting = true
	s.bump()

	draft := s.draft
	gw, timeout, verifier := s.gw, s.timeout, s.verifier
	journal, log := s.journal, s.log

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		if verifier != nil {
			if err := verifier.Verify(ctx, draft); err != nil {
				return AccountCreatedMsg{Err: fmt.Errorf("verifying imap login: %w", err)}
			}
		}

		account, err := gw.CreateAccount(ctx, draft)
		entry := model.Activity{
			Kind:    model.ActivityAccountCreated,
			Message: fmt.Sprintf("account %s@%s", draft.Username, draft.Host),
		}
		if account != nil {
			entry.AccountID = account.ID
		}
		store.Record(context.Background(), journal, log, entry, err)
		return AccountCreatedMsg{Account: account, Err: err}
	}, nil
}

func (s *Session) applyAccountCreated(msg AccountCreatedMsg) tea.Cmd {
	s.submitting = false
	if msg.Err != nil {
		s.fail("adding account", msg.Err)
		return nil
	}

	s.draft = model.NewAccountDraft()
	label := "account"
	if msg.Account != nil {
		label = msg.Account.Label()
	}
	s.inform(label + " added")
	return s.RefreshAccounts()
}

func (s *Session) applyInterested(msg InterestedMsg) tea.Cmd {
	if msg.Err != nil {
		s.fail("mark interested", msg.Err)
	} else {
		s.inform("marked as interesting")
	}
	return s.RefreshEmails()
}

func (s *Session) applySuggestion(msg SuggestionMsg) tea.Cmd {
	if msg.Err != nil {
		s.fail("suggest reply", msg.Err)
		return nil
	}
	s.suggestion = Suggestion{EmailID: msg.EmailID, Text: msg.Text}
	s.inform("reply suggestion ready")
	return nil
}

func (s *Session) applyAgendaSaved(msg AgendaSavedMsg) tea.Cmd {
	if msg.Err != nil {
		s.fail("create agenda", msg.Err)
		return nil
	}
	s.inform(fmt.Sprintf("agenda %q saved", msg.Title))
	return nil
}
