// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/store"
)

// NewTestJournal opens a session-scoped activity journal in memory, the
// same DSN the client uses by default, and closes it when t finishes.
func NewTestJournal(t *testing.T) *store.SQLiteStore {
	t.Helper()

	journal, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening test journal")

	t.Cleanup(func() {
		require.NoError(t, journal.Close(), "closing test journal")
	})

	return journal
}
