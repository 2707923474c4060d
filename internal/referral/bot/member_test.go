package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/require"
)

func member(status string) tgbotapi.ChatMember {
	return tgbotapi.ChatMember{Status: status}
}

func TestIsJoin(t *testing.T) {
	t.Run("left to member is a join", func(t *testing.T) {
		require.True(t, isJoin(member("left"), member("member")))
	})

	t.Run("kicked to member is a join", func(t *testing.T) {
		require.True(t, isJoin(member("kicked"), member("member")))
	})

	t.Run("restricted non-member to member is a join", func(t *testing.T) {
		old := tgbotapi.ChatMember{Status: "restricted", IsMember: false}
		require.True(t, isJoin(old, member("member")))
	})

	t.Run("promotion is not a join", func(t *testing.T) {
		require.False(t, isJoin(member("member"), member("administrator")))
	})

	t.Run("leaving is not a join", func(t *testing.T) {
		require.False(t, isJoin(member("member"), member("left")))
	})

	t.Run("restriction within the chat is not a join", func(t *testing.T) {
		cur := tgbotapi.ChatMember{Status: "restricted", IsMember: true}
		require.False(t, isJoin(member("member"), cur))
	})
}
