package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers plain text messages to a Telegram chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

// BotSender implements Sender with the Bot API client.
type BotSender struct {
	BotAPI *tgbotapi.BotAPI
}

func (s *BotSender) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.BotAPI.Send(msg)
	return err
}
