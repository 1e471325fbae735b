package session

import "github.com/nhle/onebox/internal/model"

// AccountsLoadedMsg carries the response of an account directory refresh.
type AccountsLoadedMsg struct {
	Gen      uint64
	Accounts []model.Account
	Err      error
}

// FoldersLoadedMsg carries the response of a folder index refresh.
type FoldersLoadedMsg struct {
	Gen       uint64
	AccountID string
	Folders   []model.FolderSummary
	Err       error
}

// EmailsLoadedMsg carries the response of a result set refresh.
type EmailsLoadedMsg struct {
	Gen   uint64
	Query model.EmailQuery
	Page  *model.EmailPage
	Err   error
}

// AccountCreatedMsg reports the outcome of a draft submission.
type AccountCreatedMsg struct {
	Account *model.Account
	Err     error
}

// InterestedMsg reports the outcome of mark-interested.
type InterestedMsg struct {
	EmailID string
	Err     error
}

// SuggestionMsg reports the outcome of suggest-reply.
type SuggestionMsg struct {
	EmailID string
	Text    string
	Err     error
}

// AgendaSavedMsg reports the outcome of create-agenda.
type AgendaSavedMsg struct {
	Title string
	Err   error
}

// WebhookSavedMsg reports whether the webhook URL reached the keyring.
type WebhookSavedMsg struct {
	URL string
	Err error
}
