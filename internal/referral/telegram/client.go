// Package telegram implements the service.Transport boundary on top of the
// Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"refergate/internal/referral/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// Telegram allows roughly 30 messages per second bot-wide; stay under it.
	defaultSendRate  = 20
	defaultSendBurst = 5
)

type Config struct {
	// Timeout bounds each outbound call. A hung call returns an error after
	// this long instead of blocking its handler forever.
	Timeout time.Duration

	// SendRate/SendBurst feed the outbound rate limiter (calls per second).
	SendRate  float64
	SendBurst int
}

// Client wraps the shared BotAPI handle with a rate limiter and a bounded
// per-call timeout. It implements service.Transport.
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	timeout time.Duration
}

func NewClient(api *tgbotapi.BotAPI, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = defaultSendRate
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = defaultSendBurst
	}

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		timeout: cfg.Timeout,
	}
}

// CreateInviteLink creates a named invite link for the group with join
// requests enabled, so membership events for it always surface the link
// metadata rather than an instant auto-join.
func (c *Client) CreateInviteLink(ctx context.Context, chatID int64, name string) (domain.InviteLink, error) {
	var link domain.InviteLink

	err := c.do(ctx, "createChatInviteLink", func() error {
		resp, err := c.api.Request(tgbotapi.CreateChatInviteLinkConfig{
			ChatConfig:         tgbotapi.ChatConfig{ChatID: chatID},
			Name:               name,
			CreatesJoinRequest: true,
		})
		if err != nil {
			return err
		}

		var raw tgbotapi.ChatInviteLink
		if err := json.Unmarshal(resp.Result, &raw); err != nil {
			return fmt.Errorf("decode invite link response: %w", err)
		}

		link = domain.InviteLink{
			URL:                raw.InviteLink,
			Name:               raw.Name,
			CreatesJoinRequest: raw.CreatesJoinRequest,
		}
		return nil
	})

	return link, err
}

// SendMessage sends a plain text message. Fire-and-forget.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.do(ctx, "sendMessage", func() error {
		_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
		return err
	})
}

// do runs one API call behind the rate limiter with a bounded wait. The
// underlying library has no context support, so on timeout the HTTP request
// is abandoned rather than cancelled; the caller still gets control back.
func (c *Client) do(ctx context.Context, method string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: %s rate limit wait: %w", method, err)
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: %s: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram: %s timed out after %s: %w", method, c.timeout, ctx.Err())
	}
}
