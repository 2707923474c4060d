package service

import (
	"context"
	"sync"
	"testing"

	"refergate/internal/referral/domain"
	"refergate/internal/referral/store"
	"refergate/internal/referral/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeTransport records outbound calls and optionally fails them.
type fakeTransport struct {
	mu        sync.Mutex
	createErr error
	sendErr   error
	created   []domain.InviteLink
	sent      []sentMessage
}

func (f *fakeTransport) CreateInviteLink(ctx context.Context, chatID int64, name string) (domain.InviteLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.InviteLink{}, f.createErr
	}

	link := domain.InviteLink{
		URL:                "https://t.me/+" + name,
		Name:               name,
		CreatesJoinRequest: true,
	}
	f.created = append(f.created, link)
	return link, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTransport) createdLinks() []domain.InviteLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.InviteLink(nil), f.created...)
}

func (f *fakeTransport) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTransport) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}
