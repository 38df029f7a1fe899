package tool

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soragoto/kokoro/core"
)

// SendTelegramName is the registry name of the SendTelegram tool.
const SendTelegramName = "send_telegram_message"

// TelegramSender is the subset of the bot API the tool needs. *tgbotapi.BotAPI
// satisfies it; tests supply a fake.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendTelegram delivers a message to a Telegram chat. Its output category is
// CategoryTelegram, so the result handler paces the text line by line.
type SendTelegram struct {
	bot    TelegramSender
	chatID int64
}

// NewSendTelegram creates the telegram tool bound to one chat.
func NewSendTelegram(bot TelegramSender, chatID int64) *SendTelegram {
	return &SendTelegram{bot: bot, chatID: chatID}
}

func (t *SendTelegram) Name() string { return SendTelegramName }

func (t *SendTelegram) Description() string {
	return "Send a message to the user over Telegram. Use this when the conversation happens on the phone."
}

func (t *SendTelegram) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message text to send.",
			},
		},
		"required": []string{"message"},
	}
}

// Category implements Categorized.
func (t *SendTelegram) Category() core.MessageCategory { return core.CategoryTelegram }

func (t *SendTelegram) Execute(_ context.Context, args map[string]any) (Result, error) {
	text, _ := args["message"].(string)
	if text == "" {
		return Result{Error: "message must not be empty"}, nil
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return Result{}, fmt.Errorf("send telegram message: %w", err)
	}
	return Result{Content: text}, nil
}
