package model

// FolderSummary is a server-defined mail grouping with its message count.
// The account id is filled in client-side from the request that produced it.
type FolderSummary struct {
	AccountID string `json:"-"`
	Folder    string `json:"folder"`
	Count     int    `json:"count"`
}
