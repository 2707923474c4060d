package sqlite

import (
	"context"
	"time"

	"refergate/internal/referral/domain"
)

type failuresRepo struct {
	db dbtx
}

func (r *failuresRepo) Record(ctx context.Context, f domain.AttributionFailure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attribution_failures (id, chat_id, user_id, invite_name, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.ChatID, f.UserID, f.InviteName, f.Reason, f.CreatedAt)
	return mapConstraint(err)
}

func (r *failuresRepo) ListRecent(ctx context.Context, limit int) ([]domain.AttributionFailure, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, user_id, invite_name, reason, created_at
		 FROM attribution_failures
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AttributionFailure
	for rows.Next() {
		var f domain.AttributionFailure
		if err := rows.Scan(&f.ID, &f.ChatID, &f.UserID, &f.InviteName, &f.Reason, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *failuresRepo) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM attribution_failures WHERE created_at < ?`, cutoff)
	return err
}
