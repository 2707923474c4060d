package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"refergate/internal/referral/service"
	"refergate/pkg/slogx"
)

// handleChatMember turns a raw membership update into a JoinEvent and hands
// it to the attribution service. Errors are logged and dropped; the event
// source never retries, and the service has already dead-lettered them.
func (r *Router) handleChatMember(ctx context.Context, m *tgbotapi.ChatMemberUpdated) {
	if m.NewChatMember.User == nil {
		return
	}
	if !isJoin(m.OldChatMember, m.NewChatMember) {
		return
	}

	ev := service.JoinEvent{
		ChatID: m.Chat.ID,
		UserID: m.NewChatMember.User.ID,
	}
	if m.InviteLink != nil {
		ev.InviteName = m.InviteLink.Name
	}

	if err := r.Attribution.HandleJoin(ctx, ev); err != nil {
		slogx.FromContext(ctx).Error("join attribution failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("joined_user_id", ev.UserID),
			slog.String("invite_name", ev.InviteName),
			slog.Any("error", err),
		)
	}
}

// isJoin reports a transition from outside the chat to inside it. Status
// changes between member states (e.g. member -> administrator) are not joins.
func isJoin(old, cur tgbotapi.ChatMember) bool {
	return !isMember(old) && isMember(cur)
}

func isMember(m tgbotapi.ChatMember) bool {
	switch m.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return m.IsMember
	default: // "left", "kicked"
		return false
	}
}
