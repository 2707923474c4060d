package service

import (
	"context"

	"refergate/internal/referral/domain"
)

// Transport is the chat platform boundary the services call out to. The
// concrete implementation lives in internal/referral/telegram; tests use a
// fake.
type Transport interface {
	// CreateInviteLink creates a named, join-request-gated invite link scoped
	// to the given group.
	CreateInviteLink(ctx context.Context, chatID int64, name string) (domain.InviteLink, error)

	// SendMessage sends a text message to a user or chat. Fire-and-forget:
	// no delivery confirmation is expected.
	SendMessage(ctx context.Context, chatID int64, text string) error
}
