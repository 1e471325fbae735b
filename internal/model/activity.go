package model

import "time"

// ActivityKind identifies what produced a journal entry.
type ActivityKind string

const (
	ActivitySyncStarted    ActivityKind = "sync_started"
	ActivitySyncSettled    ActivityKind = "sync_settled"
	ActivityAccountCreated ActivityKind = "account_created"
	ActivityMarkInterested ActivityKind = "mark_interested"
	ActivitySuggestReply   ActivityKind = "suggest_reply"
	ActivityAgendaSaved    ActivityKind = "agenda_saved"
)

// Activity is a journal entry describing a sync cycle or an action outcome.
type Activity struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id" db:"id"`

	// Kind identifies the operation that produced it.
	Kind ActivityKind `json:"kind" db:"kind"`

	// AccountID is set for sync and account entries.
	AccountID string `json:"account_id" db:"account_id"`

	// EmailID is set for per-message actions.
	EmailID string `json:"email_id" db:"email_id"`

	// Message is the human-readable outcome.
	Message string `json:"message" db:"message"`

	// Error holds the failure text, empty on success.
	Error string `json:"error" db:"error"`

	// Read indicates whether the user has opened the activity view since.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when the outcome was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Failed reports whether the entry records a failure.
func (a Activity) Failed() bool {
	return a.Error != ""
}
