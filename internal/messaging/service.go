// Package messaging provides the chat transport abstraction and update
// dispatch for the concierge bot.
package messaging

import (
	"context"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Service defines a pluggable chat transport abstraction.
// It supports sending messages and keyboards, answering callback queries, and
// provides a channel of incoming updates.
type Service interface {
	// SendMessage sends a plain text message to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendButtons sends a text message with an inline keyboard attached.
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]models.Button) error

	// AnswerCallback acknowledges a callback query, optionally showing a
	// short notification text to the user.
	AnswerCallback(ctx context.Context, callbackID string, text string) error

	// ChatTitle returns the display title of a chat.
	ChatTitle(ctx context.Context, chatID int64) (string, error)

	// ChatAdministrators returns the administrators of a group chat.
	ChatAdministrators(ctx context.Context, chatID int64) ([]models.User, error)

	// ChatMember returns the user's profile in a chat, used to resolve
	// drivers of blocked vehicles to mentionable names.
	ChatMember(ctx context.Context, chatID, userID int64) (models.User, error)

	// Updates returns a channel of incoming updates (messages and callback
	// queries).
	Updates() <-chan models.Update

	// Start begins background processing (e.g., long polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error
}
