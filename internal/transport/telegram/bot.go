package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

// Concierge answers one inbound client message.
type Concierge interface {
	HandleMessage(ctx context.Context, phone, text string) (agent.Reply, error)
}

// Bot lets clients talk to the concierge over Telegram. A Telegram user is
// identified by a synthetic phone "tg:<user id>".
type Bot struct {
	bot       *tele.Bot
	concierge Concierge
	sender    *sender
}

func NewBot(ctx context.Context, cfg core.TelegramConfig, concierge Concierge) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:       b,
		concierge: concierge,
		sender:    newSender(b),
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, log.WithComponent(ctx, "telegram"))
			return next(c)
		}
	})

	b.Handle("/start", bot.handleStart)
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func phoneOf(user *tele.User) string {
	return fmt.Sprintf("tg:%d", user.ID)
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	return b.sender.sendMarkdown(ctx, c.Chat(), fmt.Sprintf(
		"Welcome to **%s**. Tell me where and when you need a car.", core.AppName), false)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	phone := phoneOf(c.Sender())

	_ = c.Notify(tele.Typing)

	reply, err := b.concierge.HandleMessage(ctx, phone, c.Text())
	if err != nil {
		logger.Error().Err(err).Str("phone", phone).Msg("chat turn failed")
		return b.sender.sendMarkdown(ctx, c.Chat(), agent.FallbackReply, false)
	}

	logger.Debug().Str("client_id", reply.Client.ID).Msg("reply sent")
	return b.sender.sendMarkdown(ctx, c.Chat(), reply.Text, false)
}
