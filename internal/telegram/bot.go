// Package telegram adapts the Telegram Bot API to the form engine: it
// receives updates over long polling, maps them onto the input union,
// resolves the conversation's session, and sends the engine's prompts back
// with platform-native keyboards.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/itsmetohirr/JobFormBot/internal/flow"
	"github.com/itsmetohirr/JobFormBot/internal/models"
	"github.com/itsmetohirr/JobFormBot/internal/schema"
	"github.com/itsmetohirr/JobFormBot/internal/session"
)

// DefaultUpdateTimeout is the long-polling timeout in seconds.
const DefaultUpdateTimeout = 30

// defaultReply is sent when a message arrives with no form in progress.
const defaultReply = "Ro'yxatdan o'tish uchun /start buyrug'ini yuboring."

// Bot wires the Telegram update stream to the step engine and finalizer.
type Bot struct {
	api       *tgbotapi.BotAPI
	engine    *flow.Engine
	finalizer *flow.Finalizer
	sessions  session.Store

	// chatLocks serializes update handling per conversation; the engine's
	// session mutation is not concurrency-safe.
	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// NewBot creates the transport over an authorized Telegram client.
func NewBot(api *tgbotapi.BotAPI, engine *flow.Engine, finalizer *flow.Finalizer, sessions session.Store) *Bot {
	slog.Debug("Telegram bot created", "username", api.Self.UserName, "flow", engine.Flow().Name)
	return &Bot{
		api:       api,
		engine:    engine,
		finalizer: finalizer,
		sessions:  sessions,
		chatLocks: make(map[int64]*sync.Mutex),
	}
}

// Run polls for updates until the context is cancelled. Updates for distinct
// conversations are handled concurrently; updates for one conversation are
// strictly serialized.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = DefaultUpdateTimeout
	updates := b.api.GetUpdatesChan(cfg)
	slog.Info("Telegram bot polling for updates", "timeout", cfg.Timeout)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Info("Telegram bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				slog.Info("Telegram update channel closed")
				return nil
			}
			go b.dispatch(ctx, update)
		}
	}
}

// dispatch routes one update under the conversation's lock.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChatID(update)
	if !ok {
		slog.Debug("Telegram update without chat, ignoring", "update_id", update.UpdateID)
		return
	}

	lock := b.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, chatID, update.CallbackQuery)
	case update.Message != nil:
		err = b.handleMessage(ctx, chatID, update.Message)
	}
	if err != nil {
		slog.Error("Telegram update handling failed", "error", err, "chat_id", chatID, "update_id", update.UpdateID)
	}
}

// lockFor returns the mutex serializing one conversation's updates. Entries
// are kept for the life of the process: a mutex is a few words, the chat set
// is bounded by the applicant pool, and removing one while a handler still
// holds it would break serialization.
func (b *Bot) lockFor(chatID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		b.chatLocks[chatID] = lock
	}
	return lock
}

// handleCallback processes inline button presses: registration starts the
// form, confirmation is fed to the engine as the confirm token.
func (b *Bot) handleCallback(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		slog.Debug("Telegram callback ack failed", "error", err, "chat_id", chatID)
	}

	switch cq.Data {
	case schema.CallbackRegister:
		return b.startForm(chatID)
	case schema.CallbackConfirm:
		return b.processInput(ctx, chatID, submitterOf(cq.From), models.TextInput(schema.CallbackConfirm))
	}
	slog.Debug("Telegram unknown callback ignored", "chat_id", chatID, "data", cq.Data)
	return nil
}

// handleMessage processes commands and per-step answers.
func (b *Bot) handleMessage(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.sendWelcome(chatID)
		case "myid":
			return b.sendText(chatID, fmt.Sprintf("Your chat ID: %d", chatID))
		default:
			slog.Debug("Telegram unknown command ignored", "chat_id", chatID, "command", msg.Command())
			return nil
		}
	}
	return b.processInput(ctx, chatID, submitterOf(msg.From), inputOf(msg))
}

// sendWelcome clears any in-flight session and shows the welcome message
// with the inline registration button.
func (b *Bot) sendWelcome(chatID int64) error {
	if err := b.sessions.Clear(chatID); err != nil {
		slog.Error("Telegram welcome session clear failed", "error", err, "chat_id", chatID)
	}
	prompt := models.Prompt{
		Text: b.engine.Flow().Welcome,
		Keyboard: &models.Keyboard{
			Inline: true,
			Rows: [][]models.Button{
				{{Text: schema.RegisterButtonText, Data: schema.CallbackRegister}},
			},
		},
	}
	return b.sendPrompt(chatID, prompt)
}

// startForm resets the session to the first step and sends its prompt.
func (b *Bot) startForm(chatID int64) error {
	sess, err := b.sessions.Get(chatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	if sess == nil {
		sess = models.NewSession(chatID)
	}
	prompt := b.engine.Start(sess)
	if err := b.sessions.Save(sess); err != nil {
		return fmt.Errorf("failed to save session for chat %d: %w", chatID, err)
	}
	return b.sendPrompt(chatID, prompt)
}

// processInput feeds one input through the engine and sends the resulting
// prompt, or finalizes at the terminal step.
func (b *Bot) processInput(ctx context.Context, chatID int64, submitter models.Submitter, in models.Input) error {
	sess, err := b.sessions.Get(chatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	if sess == nil {
		sess = models.NewSession(chatID)
	}

	result, err := b.engine.HandleInput(sess, in)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveForm) {
			return b.sendText(chatID, defaultReply)
		}
		return err
	}

	if result.Finalize {
		outcome, err := b.finalizer.Finalize(ctx, sess, submitter)
		if err != nil {
			if errors.Is(err, models.ErrNoActiveForm) {
				return nil
			}
			return err
		}
		return b.sendText(chatID, outcome.SubmitterMessage)
	}

	if err := b.sessions.Save(sess); err != nil {
		return fmt.Errorf("failed to save session for chat %d: %w", chatID, err)
	}
	return b.sendPrompt(chatID, result.Prompt)
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) sendPrompt(chatID int64, prompt models.Prompt) error {
	msg := tgbotapi.NewMessage(chatID, prompt.Text)
	if markup := MarkupFor(prompt.Keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send prompt to chat %d: %w", chatID, err)
	}
	return nil
}

// MarkupFor renders a keyboard descriptor as Telegram reply markup.
func MarkupFor(kb *models.Keyboard) interface{} {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(false)
	case kb.Inline:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	default:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(btn.Text))
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.OneTimeKeyboard = kb.OneTime
		markup.InputFieldPlaceholder = kb.Placeholder
		return markup
	}
}

// inputOf maps a Telegram message onto the input union. Photos use the
// highest-resolution variant's file id.
func inputOf(msg *tgbotapi.Message) models.Input {
	switch {
	case msg.Contact != nil:
		return models.ContactInput(msg.Contact.PhoneNumber)
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return models.PhotoInput(largest.FileID)
	case msg.Text != "":
		return models.TextInput(msg.Text)
	}
	return models.NoInput()
}

func submitterOf(user *tgbotapi.User) models.Submitter {
	if user == nil {
		return models.Submitter{}
	}
	return models.Submitter{ID: user.ID, Username: user.UserName}
}

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	case update.CallbackQuery != nil:
		// Callback without an attached message; fall back to the sender id.
		return update.CallbackQuery.From.ID, true
	}
	return 0, false
}

// ChatIDString renders a chat id as a notifier recipient id.
func ChatIDString(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
