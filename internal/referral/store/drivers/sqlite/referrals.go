package sqlite

import (
	"context"
	"time"

	"refergate/internal/referral/domain"
)

type referralsRepo struct {
	db dbtx
}

const referralColumns = `user_id, invite_link, invite_name, referral_count, rewarded, created_at, updated_at`

func (r *referralsRepo) GetByUserID(ctx context.Context, userID int64) (domain.Referral, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE user_id = ?`, userID)
	return scanReferral(row)
}

func (r *referralsRepo) GetByInviteName(ctx context.Context, name string) (domain.Referral, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE invite_name = ?`, name)
	return scanReferral(row)
}

func (r *referralsRepo) Create(ctx context.Context, ref domain.Referral) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO referrals (user_id, invite_link, invite_name, referral_count, rewarded, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?)`,
		ref.UserID, ref.InviteLink, ref.InviteName, ref.CreatedAt, ref.UpdatedAt)
	return mapConstraint(err)
}

// IncrementCount is a single UPDATE so two joins for the same inviter can
// never both read N and both write N+1.
func (r *referralsRepo) IncrementCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE referrals
		 SET referral_count = referral_count + 1, updated_at = ?
		 WHERE user_id = ?
		 RETURNING referral_count`,
		time.Now().UTC(), userID).Scan(&count)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return count, nil
}

// MarkRewarded flips rewarded 0 -> 1. The WHERE guard makes the flip a
// one-shot claim: only the caller that actually transitions the flag sees
// true, every later call sees false.
func (r *referralsRepo) MarkRewarded(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE referrals SET rewarded = 1, updated_at = ? WHERE user_id = ? AND rewarded = 0`,
		time.Now().UTC(), userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *referralsRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM referrals`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReferral(row rowScanner) (domain.Referral, error) {
	var ref domain.Referral
	err := row.Scan(
		&ref.UserID,
		&ref.InviteLink,
		&ref.InviteName,
		&ref.ReferralCount,
		&ref.Rewarded,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)
	if err != nil {
		return domain.Referral{}, mapNotFound(err)
	}
	return ref, nil
}
