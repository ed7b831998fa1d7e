package store

import (
	"context"
	"time"

	"github.com/abhisek/sentrypath/internal/progress"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ProgressRepo stores one progress record per user.
type ProgressRepo interface {
	// Get returns the user's record, or nil if none exists.
	Get(ctx context.Context, userID string) (*progress.UserProgress, error)

	// Put replaces the user's record.
	Put(ctx context.Context, userID string, p progress.UserProgress) error
}

// ProgressEvent is one accepted mutation.
type ProgressEvent struct {
	Sequence  int64
	Timestamp time.Time
	UserID    string
	Op        string
	Detail    string // JSON
}

// EventRepo provides append and query access to progress events.
type EventRepo interface {
	// Append records e and sets its Sequence.
	Append(ctx context.Context, e *ProgressEvent) error

	// Recent returns the user's events, newest first.
	Recent(ctx context.Context, userID string, opts QueryOpts) ([]ProgressEvent, error)
}
