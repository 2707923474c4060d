package domain

import "time"

// AttributionFailure is a dead-letter entry for a join event that was dropped.
// The event source never retries, so this table is the only record that an
// increment or reward notification was lost.
type AttributionFailure struct {
	ID         string // ULID
	ChatID     int64
	UserID     int64 // the joining user, not the inviter
	InviteName string
	Reason     string
	CreatedAt  time.Time
}
