package notify

import (
	"strconv"
	"time"

	"equity-lab/config"
	"equity-lab/pkg/logger"

	"gopkg.in/telebot.v3"
)

// Notifier delivers short job/alert messages to the owner's Telegram chat.
// A disabled notifier swallows sends, callers never branch on the config.
type Notifier interface {
	Send(message string) error
}

type telegramNotifier struct {
	bot    *telebot.Bot
	chatID int64
	log    *logger.Logger
}

type noopNotifier struct{}

func (noopNotifier) Send(string) error { return nil }

// NewTelegramNotifier creates a Notifier backed by a Telegram bot, or a no-op
// one when the feature is disabled.
func NewTelegramNotifier(cfg *config.TelegramConfig, log *logger.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return noopNotifier{}, nil
	}

	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: timeout},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
	if err != nil {
		return nil, err
	}

	return &telegramNotifier{bot: bot, chatID: chatID, log: log}, nil
}

func (n *telegramNotifier) Send(message string) error {
	_, err := n.bot.Send(&telebot.Chat{ID: n.chatID}, message)
	if err != nil {
		n.log.Error("Failed to send telegram notification", logger.ErrorField(err))
	}
	return err
}
