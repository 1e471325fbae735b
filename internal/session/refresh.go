package session

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/sync"
)

// directory is the cached account list in server order.
type directory struct {
	items []model.Account
	gen   uint64
}

// folderIndex is the folder list of the selected account. followGen is
// the generation whose response owes the result set a refresh when
// applying it leaves the folder unchanged.
type folderIndex struct {
	items     []model.FolderSummary
	gen       uint64
	followGen uint64
}

// resultSet is the snapshot of emails matching the selection. loading
// stays set until the response of the latest generation arrives.
type resultSet struct {
	items   []model.EmailSummary
	total   int
	gen     uint64
	loading bool
}

// RefreshAccounts reloads the account directory.
func (s *Session) RefreshAccounts() tea.Cmd {
	s.accounts.gen++
	gen := s.accounts.gen
	gw, timeout := s.gw, s.timeout

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		accounts, err := gw.ListAccounts(ctx)
		return AccountsLoadedMsg{Gen: gen, Accounts: accounts, Err: err}
	}
}

// RefreshFolders reloads the folder index of the selected account. It is
// a no-op when no account is selected.
func (s *Session) RefreshFolders() tea.Cmd {
	return s.refreshFolders(s.sel.Current().AccountID)
}

// RefreshEmails reloads the result set for the current selection.
func (s *Session) RefreshEmails() tea.Cmd {
	return s.refreshEmails(queryFor(s.sel.Current()))
}

func (s *Session) refreshFolders(accountID string) tea.Cmd {
	if accountID == "" {
		return nil
	}

	s.folders.gen++
	gen := s.folders.gen
	gw, timeout := s.gw, s.timeout

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		folders, err := gw.ListFolders(ctx, accountID)
		return FoldersLoadedMsg{Gen: gen, AccountID: accountID, Folders: folders, Err: err}
	}
}

func (s *Session) refreshEmails(query model.EmailQuery) tea.Cmd {
	s.emails.gen++
	s.emails.loading = true
	s.bump()
	gen := s.emails.gen
	gw, timeout := s.gw, s.timeout

	s.log.WithFields(logrus.Fields{
		"generation": gen,
		"query":      query.Encode(),
	}).Debug("refreshing emails")

	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		page, err := gw.ListEmails(ctx, query)
		return EmailsLoadedMsg{Gen: gen, Query: query, Page: page, Err: err}
	}
}

func (s *Session) applyAccounts(msg AccountsLoadedMsg) tea.Cmd {
	if msg.Gen != s.accounts.gen {
		s.log.WithField("generation", msg.Gen).Debug("dropping stale accounts response")
		return nil
	}
	if msg.Err != nil {
		s.fail("loading accounts", msg.Err)
		return nil
	}

	s.accounts.items = msg.Accounts
	s.bump()

	if s.sel.Current().AccountID == "" && len(msg.Accounts) > 0 {
		return s.sel.SetAccount(msg.Accounts[0].ID)
	}
	return nil
}

func (s *Session) applyFolders(msg FoldersLoadedMsg) tea.Cmd {
	log := s.log.WithFields(logrus.Fields{
		"generation": msg.Gen,
		"account_id": msg.AccountID,
	})
	if msg.Gen != s.folders.gen || msg.AccountID != s.sel.Current().AccountID {
		log.Debug("dropping stale folders response")
		return nil
	}

	follow := s.folders.followGen == msg.Gen
	s.folders.followGen = 0

	if msg.Err != nil {
		s.fail("loading folders", msg.Err)
		if follow {
			return s.RefreshEmails()
		}
		return nil
	}

	s.folders.items = msg.Folders
	s.bump()

	prev := s.sel.Current().Folder
	var cmd tea.Cmd
	if len(msg.Folders) > 0 {
		cmd = s.sel.SetFolder(msg.Folders[0].Folder)
	}
	if follow && s.sel.Current().Folder == prev {
		return tea.Batch(cmd, s.RefreshEmails())
	}
	return cmd
}

func (s *Session) applyEmails(msg EmailsLoadedMsg) tea.Cmd {
	if msg.Gen != s.emails.gen {
		s.log.WithField("generation", msg.Gen).Debug("dropping stale emails response")
		return nil
	}

	s.emails.loading = false
	if msg.Err != nil {
		s.fail("loading emails", msg.Err)
		return nil
	}

	s.emails.items = msg.Page.Items
	s.emails.total = msg.Page.Total
	s.bump()
	return nil
}

func (s *Session) applySettled(msg sync.SettledMsg) tea.Cmd {
	done, journal := s.sync.Settle(msg)
	if !done {
		return nil
	}
	s.bump()

	if msg.StartErr == nil {
		s.inform("sync finished")
	}

	// The refresh targets whatever account is selected now, which may
	// differ from the account the cycle was started for. The result set
	// is refreshed once the folder index has settled the folder.
	folders := s.RefreshFolders()
	if folders == nil {
		return tea.Batch(journal, s.RefreshEmails())
	}
	s.folders.followGen = s.folders.gen
	return tea.Batch(journal, folders)
}
