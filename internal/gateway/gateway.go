package gateway

import (
	"context"
	"net/url"

	"github.com/nhle/onebox/internal/model"
)

type syncRequest struct {
	Days int `json:"days"`
}

type markInterestedRequest struct {
	WebhookURL string `json:"webhook_url"`
}

type suggestReplyRequest struct {
	EmailID string `json:"email_id"`
}

type suggestReplyResponse struct {
	Suggestion string `json:"suggestion"`
}

type agendaRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ListAccounts returns the registered accounts in server order.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := c.Get(ctx, "/accounts", &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// CreateAccount registers a new account from the draft.
func (c *Client) CreateAccount(
	ctx context.Context,
	draft model.AccountDraft,
) (*model.Account, error) {
	var created model.Account
	if err := c.Post(ctx, "/accounts", draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListFolders returns the folders of an account with message counts.
func (c *Client) ListFolders(
	ctx context.Context,
	accountID string,
) ([]model.FolderSummary, error) {
	q := url.Values{}
	q.Set("account_id", accountID)

	var folders []model.FolderSummary
	if err := c.Get(ctx, "/emails/folders?"+q.Encode(), &folders); err != nil {
		return nil, err
	}

	out := make([]model.FolderSummary, 0, len(folders))
	for _, f := range folders {
		f.AccountID = accountID
		out = append(out, f)
	}
	return out, nil
}

// ListEmails returns the emails matching the query. Empty filters are
// not sent.
func (c *Client) ListEmails(
	ctx context.Context,
	query model.EmailQuery,
) (*model.EmailPage, error) {
	path := "/emails"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page model.EmailPage
	if err := c.Get(ctx, path, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []model.EmailSummary{}
	}
	return &page, nil
}

// StartSync asks the backend to ingest the last days of mail for an
// account. The backend acknowledges without reporting completion.
func (c *Client) StartSync(ctx context.Context, accountID string, days int) error {
	return c.Post(ctx, "/sync/"+url.PathEscape(accountID), syncRequest{Days: days}, nil)
}

// MarkInterested flags an email and asks the backend to notify the webhook.
func (c *Client) MarkInterested(ctx context.Context, emailID, webhookURL string) error {
	path := "/emails/" + url.PathEscape(emailID) + "/mark/interested"
	return c.Post(ctx, path, markInterestedRequest{WebhookURL: webhookURL}, nil)
}

// SuggestReply returns an AI-drafted reply for an email.
func (c *Client) SuggestReply(ctx context.Context, emailID string) (string, error) {
	var resp suggestReplyResponse
	if err := c.Post(ctx, "/suggest-reply", suggestReplyRequest{EmailID: emailID}, &resp); err != nil {
		return "", err
	}
	return resp.Suggestion, nil
}

// CreateAgenda records a meeting agenda.
func (c *Client) CreateAgenda(ctx context.Context, title, content string) error {
	return c.Post(ctx, "/agenda", agendaRequest{Title: title, Content: content}, nil)
}
