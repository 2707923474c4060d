package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"refergate/internal/referral/domain"
	"refergate/internal/referral/store"
	"refergate/pkg/slogx"
)

// inviteNamePrefix is the fixed prefix on every invite link name the bot
// issues. The suffix is the enrolling user's id, which keeps issued links
// self-describing, but attribution never trusts the suffix alone (see
// AttributionService).
const inviteNamePrefix = "ref_"

// ErrBadInviteName reports a link name that does not match ref_<integer>.
var ErrBadInviteName = errors.New("service: invite link name does not match ref_<id>")

// InviteName returns the link name issued to a user.
func InviteName(userID int64) string {
	return inviteNamePrefix + strconv.FormatInt(userID, 10)
}

// ParseInviteName extracts the user id a link name claims to belong to.
func ParseInviteName(name string) (int64, error) {
	rest, ok := strings.CutPrefix(name, inviteNamePrefix)
	if !ok {
		return 0, ErrBadInviteName
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadInviteName, name)
	}
	return id, nil
}

// EnrollmentService handles the /start workflow: look up or lazily create the
// user's referral record and its invite link.
type EnrollmentService struct {
	Store     store.Store
	Transport Transport
	GroupID   int64
}

// Enroll returns the user's referral record, creating it on first contact.
// Repeat calls return the stored invite link verbatim; the link is minted
// exactly once per user and never rotated.
func (s *EnrollmentService) Enroll(ctx context.Context, userID int64) (domain.Referral, error) {
	log := slogx.FromContext(ctx)

	ref, err := s.Store.Referrals().GetByUserID(ctx, userID)
	if err == nil {
		log.Debug("enrollment reused stored invite link", slog.Int64("user_id", userID))
		return ref, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to look up referral record",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return domain.Referral{}, err
	}

	// First contact: mint a join-request-gated link so the membership event
	// carries the invite link metadata instead of an instant auto-join.
	link, err := s.Transport.CreateInviteLink(ctx, s.GroupID, InviteName(userID))
	if err != nil {
		log.Error("failed to create invite link",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return domain.Referral{}, err
	}

	now := time.Now().UTC()
	ref = domain.Referral{
		UserID:     userID,
		InviteLink: link.URL,
		InviteName: link.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Store.Referrals().Create(ctx, ref); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a concurrent first-enrollment race. The link minted above
			// is orphaned on the platform side; return the winner's record.
			log.Warn("concurrent enrollment detected, reusing stored link",
				slog.Int64("user_id", userID),
			)
			return s.Store.Referrals().GetByUserID(ctx, userID)
		}
		log.Error("failed to persist referral record",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return domain.Referral{}, err
	}

	log.Info("user enrolled",
		slog.Int64("user_id", userID),
		slog.String("invite_name", ref.InviteName),
	)

	return ref, nil
}
