package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/onebox/internal/model"
)

// SQLiteStore implements the Store interface using a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations. The path
// ":memory:" gives a journal that lives only as long as the process.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordActivity inserts a journal entry, assigning an id and timestamp
// when they are missing.
func (s *SQLiteStore) RecordActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (id, kind, account_id, email_id, message, error, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.AccountID, a.EmailID,
		a.Message, a.Error, boolToInt(a.Read), a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s activity: %w", a.Kind, err)
	}

	return nil
}

// GetActivity retrieves journal entries matching the filter, newest first.
func (s *SQLiteStore) GetActivity(
	ctx context.Context,
	filter ActivityFilter,
) ([]model.Activity, error) {
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.AccountID != nil {
		conditions = append(conditions, "account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = 0")
	}

	query := "SELECT id, kind, account_id, email_id, message, error, read, created_at FROM activity"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var entries []model.Activity
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}

	return entries, nil
}

// CountUnread returns the number of entries not yet seen.
func (s *SQLiteStore) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM activity WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread activity: %w", err)
	}
	return count, nil
}

// MarkAllRead marks every journal entry as read.
func (s *SQLiteStore) MarkAllRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE activity SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking activity read: %w", err)
	}
	return nil
}

// boolToInt converts a bool to an integer for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
