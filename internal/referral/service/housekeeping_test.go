package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"refergate/internal/referral/domain"
	"refergate/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingPrunesOldFailures(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()
	for _, f := range []domain.AttributionFailure{
		{ID: idx.NewAt(old).String(), ChatID: testGroupID, UserID: 7, InviteName: "ref_42", Reason: "stale", CreatedAt: old},
		{ID: idx.NewAt(fresh).String(), ChatID: testGroupID, UserID: 8, InviteName: "ref_42", Reason: "fresh", CreatedAt: fresh},
	} {
		require.NoError(t, st.Failures().Record(ctx, f))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewHousekeepingService(st, logger, time.Hour, 24*time.Hour)

	// Start runs one cleanup immediately; Stop waits for it.
	svc.Start()
	svc.Stop()

	got, err := st.Failures().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "fresh", got[0].Reason)
}
