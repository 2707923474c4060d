package sqlite_test

import (
	"context"
	"testing"
	"time"

	"refergate/internal/referral/domain"
	"refergate/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newFailure(at time.Time, reason string) domain.AttributionFailure {
	return domain.AttributionFailure{
		ID:         idx.NewAt(at).String(),
		ChatID:     -100123,
		UserID:     7,
		InviteName: "ref_42",
		Reason:     reason,
		CreatedAt:  at,
	}
}

func TestFailuresRecordAndListRecent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.Failures().Record(ctx, newFailure(base, "first")))
	require.NoError(t, st.Failures().Record(ctx, newFailure(base.Add(time.Minute), "second")))
	require.NoError(t, st.Failures().Record(ctx, newFailure(base.Add(2*time.Minute), "third")))

	got, err := st.Failures().ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "third", got[0].Reason)
	require.Equal(t, "second", got[1].Reason)
}

func TestFailuresDeleteBefore(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()
	require.NoError(t, st.Failures().Record(ctx, newFailure(old, "stale")))
	require.NoError(t, st.Failures().Record(ctx, newFailure(fresh, "fresh")))

	require.NoError(t, st.Failures().DeleteBefore(ctx, time.Now().UTC().Add(-24*time.Hour)))

	got, err := st.Failures().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "fresh", got[0].Reason)
}
