package bot

import (
	"context"

	"monkeybot/internal/platform/telegram"
)

// Gateway is the full messaging surface the bot consumes. Implemented by
// *telegram.Client; feature services each depend on their own narrow slice.
type Gateway interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	Send(ctx context.Context, chatID int64, text string) (int64, error)
	SendWithKeyboard(ctx context.Context, chatID int64, text string, kb telegram.InlineKeyboardMarkup) (int64, error)
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	EditWithKeyboard(ctx context.Context, chatID, messageID int64, text string, kb telegram.InlineKeyboardMarkup) error
	Delete(ctx context.Context, chatID, messageID int64) error
	React(ctx context.Context, chatID, messageID int64, emoji string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
