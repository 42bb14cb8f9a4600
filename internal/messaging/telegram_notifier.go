// Package messaging provides notifier channels for administrator
// notifications: Telegram chats and Twilio SMS.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the subset of the Telegram client used by the notifier.
// It is satisfied by *tgbotapi.BotAPI and by test fakes.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers notifications to Telegram chat-id recipients.
type TelegramNotifier struct {
	api TelegramSender
}

// NewTelegramNotifier creates a notifier over an authorized Telegram client.
func NewTelegramNotifier(api TelegramSender) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// SendText sends a plain text message to the chat-id recipient.
func (n *TelegramNotifier) SendText(ctx context.Context, recipient string, text string) error {
	chatID, err := parseChatID(recipient)
	if err != nil {
		return err
	}
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("TelegramNotifier SendText failed", "error", err, "recipient", recipient)
		return fmt.Errorf("failed to send telegram message to %s: %w", recipient, err)
	}
	slog.Debug("TelegramNotifier SendText succeeded", "recipient", recipient, "length", len(text))
	return nil
}

// SendPhoto re-sends a Telegram photo by its file id with a caption.
func (n *TelegramNotifier) SendPhoto(ctx context.Context, recipient string, photoRef string, caption string) error {
	chatID, err := parseChatID(recipient)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoRef))
	photo.Caption = caption
	if _, err := n.api.Send(photo); err != nil {
		slog.Error("TelegramNotifier SendPhoto failed", "error", err, "recipient", recipient)
		return fmt.Errorf("failed to send telegram photo to %s: %w", recipient, err)
	}
	slog.Debug("TelegramNotifier SendPhoto succeeded", "recipient", recipient)
	return nil
}

func parseChatID(recipient string) (int64, error) {
	// ParseInt accepts a leading plus, so a phone number misplaced in the
	// chat-id list would otherwise be routed to a bogus chat.
	if strings.HasPrefix(recipient, "+") {
		return 0, fmt.Errorf("invalid telegram chat id %q: looks like a phone number", recipient)
	}
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}
	return chatID, nil
}
