package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/onebox/internal/model"
)

const recordTimeout = 5 * time.Second

// ActivityFilter controls filtering and pagination for journal queries.
type ActivityFilter struct {
	Kind       *model.ActivityKind
	AccountID  *string
	UnreadOnly bool
	Limit      int
}

// Store defines the persistence interface for the activity journal.
type Store interface {
	RecordActivity(ctx context.Context, a model.Activity) error
	GetActivity(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
	CountUnread(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) error
}

// Record writes a to s, taking the error text from err when it is set.
// A nil s records nothing. Write failures are logged, not returned.
func Record(ctx context.Context, s Store, log logrus.FieldLogger, a model.Activity, err error) {
	if s == nil {
		return
	}
	if err != nil {
		a.Error = err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if werr := s.RecordActivity(ctx, a); werr != nil {
		log.WithError(werr).WithField("kind", a.Kind).Warn("recording activity")
	}
}
