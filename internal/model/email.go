package model

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// timestampLayouts are tried in order when decoding backend timestamps.
// Backends built on Python frequently omit the zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time.Time that decodes leniently from JSON.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 strings with or without a zone, and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

// MarshalJSON encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// EmailSummary is a single message row in the Result Set. Only the AI
// category may differ between refreshes.
type EmailSummary struct {
	ID         string    `json:"_id"`
	Date       Timestamp `json:"date"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Folder     string    `json:"folder"`
	AICategory string    `json:"ai_category,omitempty"`
}

// SenderName returns the display name of the sender when the raw header
// value carries one, otherwise the bare address or the raw value.
func (e EmailSummary) SenderName() string {
	addr, err := mail.ParseAddress(e.Sender)
	if err != nil {
		return e.Sender
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

// Category returns the AI category or a placeholder when unclassified.
func (e EmailSummary) Category() string {
	if e.AICategory == "" {
		return "-"
	}
	return e.AICategory
}

// EmailPage is the response of GET /emails.
type EmailPage struct {
	Items []EmailSummary `json:"items"`
	Total int            `json:"total"`
}

// EmailQuery holds the optional filters of an email listing. An empty
// field means "no filter" and is never sent.
type EmailQuery struct {
	AccountID string
	Folder    string
	Search    string
}

// Values encodes the query, omitting every empty filter.
func (q EmailQuery) Values() url.Values {
	v := url.Values{}
	if q.AccountID != "" {
		v.Set("account_id", q.AccountID)
	}
	if q.Folder != "" {
		v.Set("folder", q.Folder)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	return v
}

// Encode returns the URL-encoded query string.
func (q EmailQuery) Encode() string {
	return q.Values().Encode()
}
