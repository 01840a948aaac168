package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"wifi-voucher/internal/config"
	"wifi-voucher/internal/domain/ports/adapter"
)

var (
	_ adapter.Notifier = (*BotNotifier)(nil)
	_ adapter.Notifier = (*LogNotifier)(nil)
)

// sender is the slice of *tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotNotifier posts operator alerts into a single admin chat.
type BotNotifier struct {
	bot    sender
	chatID int64
	log    *zerolog.Logger
}

func NewBotNotifier(cfg *config.TelegramConfig, logger *zerolog.Logger) (*BotNotifier, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.AdminChatID == 0 {
		return nil, errors.New("telegram admin_chat_id is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newBotNotifier(bot, cfg.AdminChatID, logger), nil
}

func newBotNotifier(bot sender, chatID int64, logger *zerolog.Logger) *BotNotifier {
	l := logger.With().Str("component", "TelegramNotifier").Int64("chat_id", chatID).Logger()
	return &BotNotifier{bot: bot, chatID: chatID, log: &l}
}

func (n *BotNotifier) NotifyAdmin(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Error().Err(err).Msg("send admin alert")
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// LogNotifier writes alerts to the log instead of Telegram; used when no bot
// token is configured.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "LogNotifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) NotifyAdmin(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Warn().Str("alert", text).Msg("admin alert")
	return nil
}
