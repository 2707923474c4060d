package store

import (
	"context"
	"errors"
	"time"

	"refergate/internal/referral/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Handlers receive it injected rather than sharing an ambient
// database handle, so every invocation works against a well-scoped accessor.
type Store interface {
	Referrals() Referrals
	Failures() Failures

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Prefer this over
	// Tx for multi-step operations that must be atomic (e.g. counting a
	// referral and claiming the reward flag together).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Referrals interface {
	// GetByUserID returns the referral record for a user.
	GetByUserID(ctx context.Context, userID int64) (domain.Referral, error)

	// GetByInviteName resolves an invite link name back to its record. This is
	// the attribution path: only names the bot actually issued resolve.
	GetByInviteName(ctx context.Context, name string) (domain.Referral, error)

	// Create inserts a new record with a zero referral count. The user_id
	// primary key and the unique invite_name make a second insert fail with
	// ErrAlreadyExists, which keeps concurrent first-time enrollment safe.
	Create(ctx context.Context, r domain.Referral) error

	// IncrementCount adds one to the user's referral count and returns the
	// new value. The increment happens in a single statement so concurrent
	// joins for the same inviter cannot lose updates.
	IncrementCount(ctx context.Context, userID int64) (int64, error)

	// MarkRewarded flips the rewarded flag once. Returns true only for the
	// call that performed the flip, false if it was already set.
	MarkRewarded(ctx context.Context, userID int64) (bool, error)

	// Count returns the number of enrolled users.
	Count(ctx context.Context) (int64, error)
}

type Failures interface {
	// Record appends a dead-letter entry for a dropped join event.
	Record(ctx context.Context, f domain.AttributionFailure) error

	// ListRecent returns the newest entries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]domain.AttributionFailure, error)

	// DeleteBefore removes entries older than cutoff (housekeeping).
	DeleteBefore(ctx context.Context, cutoff time.Time) error
}
