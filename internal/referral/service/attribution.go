package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"refergate/internal/referral/domain"
	"refergate/internal/referral/store"
	"refergate/pkg/idx"
	"refergate/pkg/slogx"
)

// JoinEvent is a membership transition into a group, as seen by the bot.
// InviteName is empty when the join used no tracked link (organic join,
// admin-added, or an unnamed link).
type JoinEvent struct {
	ChatID     int64
	UserID     int64
	InviteName string
}

// AttributionService resolves joins in the monitored group back to the
// inviter who issued the link and grants the reward once the inviter's count
// reaches the threshold.
type AttributionService struct {
	Store      store.Store
	Transport  Transport
	GroupID    int64
	Threshold  int64
	RewardLink string
}

// HandleJoin processes one membership event. Non-referral joins return nil
// without side effects; real failures are recorded to the dead-letter table
// and returned for the caller to log. The caller never retries: the event
// source is fire-and-forget.
func (s *AttributionService) HandleJoin(ctx context.Context, ev JoinEvent) error {
	log := slogx.FromContext(ctx)

	// Only the monitored group counts.
	if ev.ChatID != s.GroupID {
		return nil
	}

	// No tracked link name means an organic join.
	if ev.InviteName == "" || !strings.HasPrefix(ev.InviteName, inviteNamePrefix) {
		return nil
	}

	if _, err := ParseInviteName(ev.InviteName); err != nil {
		log.Warn("invite link name has a non-numeric suffix",
			slog.String("invite_name", ev.InviteName),
		)
		s.recordFailure(ctx, ev, "malformed invite link name")
		return nil
	}

	// Resolve the inviter by exact lookup of the stored name rather than
	// trusting the parsed suffix. A name the bot never issued resolves to
	// nobody, so a forged ref_<id> cannot inflate anyone's count.
	ref, err := s.Store.Referrals().GetByInviteName(ctx, ev.InviteName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("join used an invite name that was never issued",
				slog.String("invite_name", ev.InviteName),
				slog.Int64("joined_user_id", ev.UserID),
			)
			return nil
		}
		s.recordFailure(ctx, ev, "referral lookup failed: "+err.Error())
		return err
	}

	// Count the referral and claim the reward flag in one transaction, so a
	// count that overshoots the threshold can never skip the reward and a
	// repeat join can never double-claim it.
	var newCount int64
	var claimed bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Referrals().IncrementCount(ctx, ref.UserID)
		if err != nil {
			return err
		}
		newCount = n

		if n >= s.Threshold {
			claimed, err = tx.Referrals().MarkRewarded(ctx, ref.UserID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, ev, "referral count update failed: "+err.Error())
		return err
	}

	log.Info("referral attributed",
		slog.Int64("inviter_id", ref.UserID),
		slog.Int64("joined_user_id", ev.UserID),
		slog.Int64("referral_count", newCount),
	)

	if !claimed {
		return nil
	}

	// The rewarded claim is already committed, so a send failure here is the
	// accepted lost-notification window; the dead-letter entry is the only
	// trace of it.
	text := fmt.Sprintf(
		"Congrats! You've invited %d people!\nHere's your private channel access link:\n%s",
		s.Threshold, s.RewardLink,
	)
	if err := s.Transport.SendMessage(ctx, ref.UserID, text); err != nil {
		log.Error("failed to send reward notification",
			slog.Int64("inviter_id", ref.UserID),
			slog.Any("error", err),
		)
		s.recordFailure(ctx, ev, "reward notification send failed: "+err.Error())
		return err
	}

	log.Info("reward notification sent", slog.Int64("inviter_id", ref.UserID))
	return nil
}

// recordFailure appends a dead-letter entry. Failures here are logged and
// swallowed: the dead-letter write must never mask the original error.
func (s *AttributionService) recordFailure(ctx context.Context, ev JoinEvent, reason string) {
	f := domain.AttributionFailure{
		ID:         idx.New().String(),
		ChatID:     ev.ChatID,
		UserID:     ev.UserID,
		InviteName: ev.InviteName,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.Failures().Record(ctx, f); err != nil {
		slogx.FromContext(ctx).Error("failed to record attribution failure",
			slog.String("reason", reason),
			slog.Any("error", err),
		)
	}
}
