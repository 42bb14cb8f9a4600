package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

func TestMarkupFor(t *testing.T) {
	if got := MarkupFor(nil); got != nil {
		t.Errorf("expected nil markup for nil keyboard, got %T", got)
	}

	if _, ok := MarkupFor(models.RemoveKeyboard()).(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Error("expected remove markup for remove keyboard")
	}

	inline := MarkupFor(&models.Keyboard{
		Inline: true,
		Rows:   [][]models.Button{{{Text: "Tasdiqlash", Data: "confirm"}}},
	})
	im, ok := inline.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline markup, got %T", inline)
	}
	btn := im.InlineKeyboard[0][0]
	if btn.Text != "Tasdiqlash" || btn.CallbackData == nil || *btn.CallbackData != "confirm" {
		t.Errorf("unexpected inline button: %+v", btn)
	}

	reply := MarkupFor(&models.Keyboard{
		OneTime:     true,
		Placeholder: "1 - 4 dan birini tanlang",
		Rows: [][]models.Button{
			{{Text: "1"}, {Text: "2"}},
			{{Text: "3"}, {Text: "4"}},
		},
	})
	rm, ok := reply.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply markup, got %T", reply)
	}
	if !rm.OneTimeKeyboard || rm.InputFieldPlaceholder != "1 - 4 dan birini tanlang" {
		t.Errorf("unexpected reply markup flags: %+v", rm)
	}
	if len(rm.Keyboard) != 2 || rm.Keyboard[0][1].Text != "2" {
		t.Errorf("unexpected reply rows: %+v", rm.Keyboard)
	}
}

func TestInputOf(t *testing.T) {
	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		expected models.Input
	}{
		{
			name:     "text message",
			msg:      &tgbotapi.Message{Text: "Anvar"},
			expected: models.TextInput("Anvar"),
		},
		{
			name:     "contact share",
			msg:      &tgbotapi.Message{Contact: &tgbotapi.Contact{PhoneNumber: "+998901234567"}},
			expected: models.ContactInput("+998901234567"),
		},
		{
			name: "photo picks largest variant",
			msg: &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 800},
			}},
			expected: models.PhotoInput("large"),
		},
		{
			name: "photo wins over caption text",
			msg: &tgbotapi.Message{
				Photo: []tgbotapi.PhotoSize{{FileID: "only"}},
				Text:  "",
			},
			expected: models.PhotoInput("only"),
		},
		{
			name:     "sticker or other payload",
			msg:      &tgbotapi.Message{},
			expected: models.NoInput(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inputOf(tt.msg); got != tt.expected {
				t.Errorf("inputOf = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestSubmitterOf(t *testing.T) {
	if got := submitterOf(nil); got != (models.Submitter{}) {
		t.Errorf("expected zero submitter for nil user, got %+v", got)
	}
	got := submitterOf(&tgbotapi.User{ID: 777, UserName: "anvar"})
	if got.ID != 777 || got.Username != "anvar" {
		t.Errorf("unexpected submitter: %+v", got)
	}
}

func TestUpdateChatID(t *testing.T) {
	msg := tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}}}
	if id, ok := updateChatID(msg); !ok || id != 10 {
		t.Errorf("expected chat id from message, got %d %v", id, ok)
	}

	cb := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 20},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 30}},
	}}
	if id, ok := updateChatID(cb); !ok || id != 30 {
		t.Errorf("expected chat id from callback message, got %d %v", id, ok)
	}

	bare := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 20}}}
	if id, ok := updateChatID(bare); !ok || id != 20 {
		t.Errorf("expected sender fallback for bare callback, got %d %v", id, ok)
	}

	if _, ok := updateChatID(tgbotapi.Update{}); ok {
		t.Error("expected no chat id for empty update")
	}
}

func TestChatIDString(t *testing.T) {
	if got := ChatIDString(-1001234567); got != "-1001234567" {
		t.Errorf("unexpected chat id string: %q", got)
	}
}
