package model

// Provider tags understood by the backend. The client does not interpret
// them beyond offering them in the account form.
const (
	ProviderCustom  = "custom"
	ProviderGmail   = "gmail"
	ProviderOutlook = "outlook"
)

var providerHosts = map[string]string{
	ProviderGmail:   "imap.gmail.com",
	ProviderOutlook: "outlook.office365.com",
}

// ProviderHost returns the well-known IMAP host of a provider, or "" for
// custom providers.
func ProviderHost(provider string) string {
	return providerHosts[provider]
}

// DefaultIMAPPort is the implicit-TLS IMAP port used for new drafts.
const DefaultIMAPPort = 993

// Account is a registered remote mailbox connection profile. The client
// holds a read-only copy; it is never mutated after creation.
type Account struct {
	// ID is the opaque identifier assigned by the backend.
	ID string `json:"id"`

	// Provider is the provider tag (see Provider* constants).
	Provider string `json:"provider"`

	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	UseSSL   bool   `json:"use_ssl"`

	// Description is free text shown instead of the username when set.
	Description string `json:"description"`
}

// Label returns the text used to identify the account in lists.
func (a Account) Label() string {
	if a.Description != "" {
		return a.Description
	}
	return a.Username
}

// AccountDraft is the not-yet-submitted form state for a new account.
// It is the request body of POST /accounts.
type AccountDraft struct {
	Provider    string `json:"provider"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseSSL      bool   `json:"use_ssl"`
	Description string `json:"description"`
}

// NewAccountDraft returns a draft populated with the form defaults.
func NewAccountDraft() AccountDraft {
	return AccountDraft{
		Provider: ProviderCustom,
		Port:     DefaultIMAPPort,
		UseSSL:   true,
	}
}
