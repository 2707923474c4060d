package domain

import "time"

// Referral is the per-user record behind the whole system: one row per user
// who ever ran /start, tracking the invite link they were issued and how many
// confirmed joins have been attributed to it.
type Referral struct {
	UserID        int64  // Telegram user id, primary key
	InviteLink    string // full https://t.me/... invite URL, issued once
	InviteName    string // link name ("ref_<user_id>"), unique, used for attribution
	ReferralCount int64  // monotonically non-decreasing
	Rewarded      bool   // set once when the count first reaches the threshold
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
