package service

import (
	"context"

	"dosh_badges/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ShareSink publishes a referral invitation.
type ShareSink interface {
	Share(ctx context.Context, text string) error
}

// LogShareSink only logs the invitation. It is used when no messenger is
// configured.
type LogShareSink struct{}

func (LogShareSink) Share(_ context.Context, text string) error {
	logger.Logger().Info("Referral invitation shared", zap.String("text", text))
	return nil
}

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramShareSink posts invitations to a Telegram chat through a bot.
type TelegramShareSink struct {
	bot    botSender
	chatID int64
}

func NewTelegramShareSink(token string, chatID int64) (*TelegramShareSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramShareSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramShareSink) Share(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return err
	}
	return nil
}
