package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/model"
)

// recorded captures one request seen by the test backend.
type recorded struct {
	Method    string
	Path      string
	RawQuery  string
	Body      string
	RequestID string
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func newBackend(t *testing.T, handler http.HandlerFunc) (*backend, *Client) {
	t.Helper()

	b := &backend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recorded{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawQuery:  r.URL.RawQuery,
			Body:      string(body),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		b.mu.Unlock()
		b.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return b, NewClient(srv.URL+"/", 0)
}

func (b *backend) last(t *testing.T) recorded {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestListAccountsPreservesServerOrder(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"id": "b2", "host": "imap.b.example", "port": 993, "use_ssl": true},
			{"id": "a1", "host": "imap.a.example", "port": 143, "use_ssl": false},
		})
	})

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "b2", accounts[0].ID)
	assert.Equal(t, "a1", accounts[1].ID)
	assert.Equal(t, 143, accounts[1].Port)

	req := b.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/accounts", req.Path)
	assert.NotEmpty(t, req.RequestID)
}

func TestListAccountsNullBodyIsEmptyList(t *testing.T) {
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestCreateAccountPostsDraft(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": "new1", "host": "imap.example.com"})
	})

	draft := model.NewAccountDraft()
	draft.Host = "imap.example.com"
	draft.Username = "me@example.com"
	draft.Password = "secret"

	created, err := c.CreateAccount(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "new1", created.ID)

	req := b.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/accounts", req.Path)
	assert.JSONEq(t, `{
		"provider": "custom",
		"host": "imap.example.com",
		"port": 993,
		"username": "me@example.com",
		"password": "secret",
		"use_ssl": true,
		"description": ""
	}`, req.Body)
}

func TestListFoldersTagsAccount(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"folder": "INBOX", "count": 5},
			{"folder": "Sent", "count": 2},
		})
	})

	folders, err := c.ListFolders(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, model.FolderSummary{AccountID: "a1", Folder: "INBOX", Count: 5}, folders[0])

	req := b.last(t)
	assert.Equal(t, "/emails/folders", req.Path)
	assert.Equal(t, "account_id=a1", req.RawQuery)
}

func TestListEmailsOmitsEmptyFilters(t *testing.T) {
	tests := []struct {
		name  string
		query model.EmailQuery
		want  string
	}{
		{name: "no filters", query: model.EmailQuery{}, want: ""},
		{name: "search only", query: model.EmailQuery{Search: "invoice"}, want: "q=invoice"},
		{
			name:  "account and folder",
			query: model.EmailQuery{AccountID: "a1", Folder: "INBOX"},
			want:  "account_id=a1&folder=INBOX",
		},
		{
			name:  "all three",
			query: model.EmailQuery{AccountID: "a1", Folder: "Sent Items", Search: "q3 report"},
			want:  "account_id=a1&folder=Sent+Items&q=q3+report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]interface{}{"items": []interface{}{}, "total": 0})
			})

			_, err := c.ListEmails(context.Background(), tt.query)
			require.NoError(t, err)

			req := b.last(t)
			assert.Equal(t, "/emails", req.Path)
			assert.Equal(t, tt.want, req.RawQuery)
		})
	}
}

func TestListEmailsDecodesItems(t *testing.T) {
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"items": [
				{"_id": "m1", "date": "2024-05-01T09:30:00", "sender": "Ann <ann@example.com>",
				 "subject": "Invoice", "folder": "INBOX", "ai_category": "Interested"},
				{"_id": "m2", "date": "2024-05-02T10:00:00Z", "sender": "bob@example.com",
				 "subject": "Hi", "folder": "INBOX"}
			],
			"total": 2
		}`))
	})

	page, err := c.ListEmails(context.Background(), model.EmailQuery{AccountID: "a1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "m1", page.Items[0].ID)
	assert.Equal(t, "Interested", page.Items[0].AICategory)
	assert.Equal(t, 2024, page.Items[0].Date.Year())
	assert.Equal(t, "-", page.Items[1].Category())
}

func TestListEmailsMissingItemsIsEmpty(t *testing.T) {
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	page, err := c.ListEmails(context.Background(), model.EmailQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestStartSyncBody(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "accepted"})
	})

	require.NoError(t, c.StartSync(context.Background(), "a 1", 30))

	req := b.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/sync/a 1", req.Path)
	assert.JSONEq(t, `{"days": 30}`, req.Body)
}

func TestActionEndpoints(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/suggest-reply" {
			writeJSON(w, map[string]string{"suggestion": "Thanks, booked!"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MarkInterested(context.Background(), "m1", ""))
	req := b.last(t)
	assert.Equal(t, "/emails/m1/mark/interested", req.Path)
	assert.JSONEq(t, `{"webhook_url": ""}`, req.Body)

	suggestion, err := c.SuggestReply(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Thanks, booked!", suggestion)
	assert.JSONEq(t, `{"email_id": "m1"}`, b.last(t).Body)

	require.NoError(t, c.CreateAgenda(context.Background(), "Standup", "cal.com/x"))
	req = b.last(t)
	assert.Equal(t, "/agenda", req.Path)
	assert.JSONEq(t, `{"title": "Standup", "content": "cal.com/x"}`, req.Body)
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "account exists", http.StatusConflict)
	})

	_, err := c.CreateAccount(context.Background(), model.NewAccountDraft())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Equal(t, "account exists", statusErr.Body)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.False(t, IsTransport(err))
}

func TestStatusErrorBodyCutOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxErrorBody-1) + "é" + strings.Repeat("b", 100)
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	})

	_, err := c.ListAccounts(context.Background())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, utf8.ValidString(statusErr.Body))
	assert.Equal(t, strings.Repeat("a", maxErrorBody-1), statusErr.Body)
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	_, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	})

	_, err := c.ListEmails(context.Background(), model.EmailQuery{})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "/emails", decodeErr.Path)
}

func TestUnreachableBackendIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, 0)
	_, err := c.ListAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	b, c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.StartSync(context.Background(), "a1", 30)
	require.True(t, IsStatus(err, http.StatusTooManyRequests))

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.requests, 1)
}
