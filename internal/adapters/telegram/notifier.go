package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

// Notifier sends alert messages to a fixed Telegram chat
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewNotifier creates a Telegram notifier for the given bot token and chat
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		log:    logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// Send delivers one alert as a title line followed by the body.
// Delivery is fire-and-forget from the caller's perspective; failures are
// logged and returned but never retried here.
func (n *Notifier) Send(ctx context.Context, title, body string) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("*%s*\n%s", title, body))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warnf("Failed to send telegram alert: %v", err)
		return errors.Wrap(err, "send telegram message")
	}
	return nil
}
