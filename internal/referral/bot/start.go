package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"refergate/pkg/slogx"
)

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Command() != "start" || msg.From == nil {
		return
	}
	r.handleStart(ctx, msg)
}

// handleStart runs the enrollment workflow and replies with the user's
// invite link. Unlike join attribution, enrollment is user-facing: on failure
// the user gets a short error reply rather than silence.
func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	log := slogx.FromContext(ctx)

	ref, err := r.Enrollment.Enroll(ctx, msg.From.ID)
	if err != nil {
		log.Error("enrollment failed",
			slog.Int64("user_id", msg.From.ID),
			slog.Any("error", err),
		)
		r.reply(ctx, msg.Chat.ID, "Something went wrong creating your invite link. Please try again in a moment.")
		return
	}

	r.reply(ctx, msg.Chat.ID, fmt.Sprintf(
		"Here's your unique invite link:\n%s\n\nInvite %d friends to unlock premium access!",
		ref.InviteLink, r.threshold,
	))
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.transport.SendMessage(ctx, chatID, text); err != nil {
		slogx.FromContext(ctx).Error("failed to send reply",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
}
