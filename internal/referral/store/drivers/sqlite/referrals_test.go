package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"refergate/internal/referral/domain"
	"refergate/internal/referral/store"
	"refergate/internal/referral/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newReferral(userID int64) domain.Referral {
	now := time.Now().UTC()
	return domain.Referral{
		UserID:     userID,
		InviteLink: "https://t.me/+abc123",
		InviteName: "ref_42",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestReferralCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	byID, err := st.Referrals().GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), byID.UserID)
	require.Equal(t, int64(0), byID.ReferralCount)
	require.False(t, byID.Rewarded)

	byName, err := st.Referrals().GetByInviteName(ctx, "ref_42")
	require.NoError(t, err)
	require.Equal(t, byID.UserID, byName.UserID)
	require.Equal(t, byID.InviteLink, byName.InviteLink)
}

func TestReferralGetMissing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Referrals().GetByUserID(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Referrals().GetByInviteName(ctx, "ref_99")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReferralCreateIsInsertOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	// Same user id again
	err := st.Referrals().Create(ctx, newReferral(42))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// Different user id but same invite name
	dup := newReferral(43)
	err = st.Referrals().Create(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	count, err := st.Referrals().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestIncrementCount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	for want := int64(1); want <= 3; want++ {
		got, err := st.Referrals().IncrementCount(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	ref, err := st.Referrals().GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(3), ref.ReferralCount)
}

func TestIncrementCountMissingUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Referrals().IncrementCount(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	const workers = 20
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Referrals().IncrementCount(ctx, 42)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ref, err := st.Referrals().GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(workers), ref.ReferralCount)
}

func TestMarkRewardedClaimsOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	claimed, err := st.Referrals().MarkRewarded(ctx, 42)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = st.Referrals().MarkRewarded(ctx, 42)
	require.NoError(t, err)
	require.False(t, claimed)

	ref, err := st.Referrals().GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.True(t, ref.Rewarded)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	sentinel := store.ErrAlreadyExists // any error will do
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Referrals().Create(ctx, newReferral(42)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Referrals().GetByUserID(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Referrals().Create(ctx, newReferral(42)))

	var count int64
	err := st.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Referrals().IncrementCount(ctx, 42)
		if err != nil {
			return err
		}
		count = n
		_, err = tx.Referrals().MarkRewarded(ctx, 42)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	ref, err := st.Referrals().GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(1), ref.ReferralCount)
	require.True(t, ref.Rewarded)
}
