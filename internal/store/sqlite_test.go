package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/store"
	"github.com/nhle/onebox/tests/testutil"
)

func TestRecordAndListActivity(t *testing.T) {
	s := testutil.NewTestJournal(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordActivity(ctx, model.Activity{
		Kind:      model.ActivitySyncStarted,
		AccountID: "a1",
		Message:   "sync requested (30 days)",
		CreatedAt: base,
	}))
	require.NoError(t, s.RecordActivity(ctx, model.Activity{
		Kind:      model.ActivityMarkInterested,
		EmailID:   "m1",
		Error:     "unexpected status 500",
		CreatedAt: base.Add(time.Minute),
	}))

	entries, err := s.GetActivity(ctx, store.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, model.ActivityMarkInterested, entries[0].Kind)
	assert.True(t, entries[0].Failed())
	assert.NotEmpty(t, entries[0].ID)
	assert.True(t, base.Add(time.Minute).Equal(entries[0].CreatedAt))

	assert.Equal(t, model.ActivitySyncStarted, entries[1].Kind)
	assert.Equal(t, "a1", entries[1].AccountID)
	assert.False(t, entries[1].Failed())
}

func TestGetActivityFilters(t *testing.T) {
	s := testutil.NewTestJournal(t)
	ctx := context.Background()

	for _, a := range []model.Activity{
		{Kind: model.ActivitySyncStarted, AccountID: "a1"},
		{Kind: model.ActivitySyncSettled, AccountID: "a1"},
		{Kind: model.ActivitySyncStarted, AccountID: "a2"},
		{Kind: model.ActivityAgendaSaved},
	} {
		require.NoError(t, s.RecordActivity(ctx, a))
	}

	kind := model.ActivitySyncStarted
	entries, err := s.GetActivity(ctx, store.ActivityFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	account := "a1"
	entries, err = s.GetActivity(ctx, store.ActivityFilter{AccountID: &account})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = s.GetActivity(ctx, store.ActivityFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestUnreadTracking(t *testing.T) {
	s := testutil.NewTestJournal(t)
	ctx := context.Background()

	require.NoError(t, s.RecordActivity(ctx, model.Activity{Kind: model.ActivityAgendaSaved}))
	require.NoError(t, s.RecordActivity(ctx, model.Activity{Kind: model.ActivitySuggestReply, EmailID: "m1"}))

	count, err := s.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkAllRead(ctx))

	count, err = s.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	unread, err := s.GetActivity(ctx, store.ActivityFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := s.GetActivity(ctx, store.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Read)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/journal.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordActivity(context.Background(), model.Activity{Kind: model.ActivityAgendaSaved}))
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.CountUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
