// Package bot owns the inbound side of the Telegram boundary: the long-poll
// update loop and the handlers that translate raw updates into service calls.
package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"refergate/internal/referral/service"
	"refergate/pkg/slogx"
)

// Router receives updates and dispatches each one on its own goroutine, so a
// slow transport call for one user never blocks joins for another.
type Router struct {
	api       *tgbotapi.BotAPI
	transport service.Transport
	logger    *slog.Logger

	threshold int64

	// Services wired by the application before Run.
	Enrollment  *service.EnrollmentService
	Attribution *service.AttributionService

	pollTimeout int
	wg          sync.WaitGroup
	done        chan struct{}
}

func NewRouter(api *tgbotapi.BotAPI, transport service.Transport, threshold int64, logger *slog.Logger) *Router {
	return &Router{
		api:         api,
		transport:   transport,
		logger:      logger,
		threshold:   threshold,
		pollTimeout: 30,
		done:        make(chan struct{}),
	}
}

// Run blocks receiving updates until Stop is called, then drains in-flight
// handlers before returning.
func (r *Router) Run() error {
	defer close(r.done)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.pollTimeout
	// chat_member updates are not delivered unless explicitly requested.
	u.AllowedUpdates = []string{
		tgbotapi.UpdateTypeMessage,
		tgbotapi.UpdateTypeChatMember,
	}

	updates := r.api.GetUpdatesChan(u)
	r.logger.Info("update loop started", "poll_timeout_s", r.pollTimeout)

	for update := range updates {
		r.wg.Add(1)
		go func(update tgbotapi.Update) {
			defer r.wg.Done()
			r.dispatch(update)
		}(update)
	}

	r.wg.Wait()
	r.logger.Info("update loop drained")
	return nil
}

// Stop closes the update channel; Run returns once in-flight handlers finish.
func (r *Router) Stop() {
	r.api.StopReceivingUpdates()
}

// Done is closed when Run has fully drained.
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// dispatch routes a single update. Any panic or handler error is contained
// here: the update loop itself must never die.
func (r *Router) dispatch(update tgbotapi.Update) {
	ctx := slogx.WithUpdateID(slogx.WithContext(context.Background(), r.logger), update.UpdateID)
	log := slogx.FromContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while handling update",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		r.handleCommand(ctx, update.Message)
	case update.ChatMember != nil:
		r.handleChatMember(ctx, update.ChatMember)
	}
}
