// Package telegram implements the messaging.Service transport over the
// Telegram Bot API using long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Constants for Telegram client configuration
const (
	// DefaultPollTimeout is the long-poll timeout used when none is configured
	DefaultPollTimeout = 10 * time.Second
	// DefaultUpdateBuffer is the capacity of the outgoing update channel
	DefaultUpdateBuffer = 64
)

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token       string
	PollTimeout time.Duration
}

// Option configures the Telegram client.
type Option func(*Opts)

// WithToken sets the bot API token.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithPollTimeout sets the long-poll timeout.
func WithPollTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.PollTimeout = d
	}
}

// Client is a Telegram-backed messaging service.
type Client struct {
	bot     *tele.Bot
	updates chan models.Update
	done    chan struct{}

	stopOnce sync.Once
}

// NewClient creates a Telegram client based on provided options. It validates
// the token against the Bot API before returning.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewClient invoked", "token_set", cfg.Token != "")

	if cfg.Token == "" {
		slog.Error("Telegram bot token not set")
		return nil, fmt.Errorf("telegram bot token not set")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		slog.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", bot.Me.Username)

	c := &Client{
		bot:     bot,
		updates: make(chan models.Update, DefaultUpdateBuffer),
		done:    make(chan struct{}),
	}
	c.registerHandlers()
	return c, nil
}

// registerHandlers forwards raw bot events onto the update channel.
func (c *Client) registerHandlers() {
	c.bot.Handle(tele.OnText, func(tc tele.Context) error {
		msg := convertMessage(tc.Message())
		if msg == nil {
			return nil
		}
		c.enqueue(models.Update{Message: msg})
		return nil
	})

	c.bot.Handle(tele.OnCallback, func(tc tele.Context) error {
		cb := tc.Callback()
		if cb == nil || cb.Sender == nil {
			return nil
		}
		cq := models.CallbackQuery{
			ID:   cb.ID,
			From: convertUser(cb.Sender),
			// telebot prefixes unique-button data with \f
			Data: strings.TrimPrefix(cb.Data, "\f"),
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			cq.Chat = convertChat(cb.Message.Chat)
		}
		c.enqueue(models.Update{Callback: &cq})
		return nil
	})
}

// enqueue forwards one update unless the client is stopping. telebot runs
// handlers on their own goroutines which may outlive Stop, so the update
// channel is never closed; a closed done channel unblocks in-flight sends.
func (c *Client) enqueue(u models.Update) {
	select {
	case c.updates <- u:
	case <-c.done:
	}
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	slog.Debug("Client.SendMessage invoked", "chatID", chatID, "length", len(text))
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Send(tele.ChatID(chatID), text); err != nil {
		slog.Error("Client.SendMessage failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	slog.Debug("Client.SendMessage succeeded", "chatID", chatID)
	return nil
}

// SendButtons sends a text message with an inline keyboard attached.
func (c *Client) SendButtons(ctx context.Context, chatID int64, text string, rows [][]models.Button) error {
	slog.Debug("Client.SendButtons invoked", "chatID", chatID, "rows", len(rows))
	if err := ctx.Err(); err != nil {
		return err
	}
	markup := &tele.ReplyMarkup{}
	keyboard := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, tele.InlineButton{Text: b.Text, Data: b.Data})
		}
		keyboard = append(keyboard, line)
	}
	markup.InlineKeyboard = keyboard
	if _, err := c.bot.Send(tele.ChatID(chatID), text, markup); err != nil {
		slog.Error("Client.SendButtons failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send keyboard to %d: %w", chatID, err)
	}
	slog.Debug("Client.SendButtons succeeded", "chatID", chatID)
	return nil
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	if err != nil {
		slog.Error("Client.AnswerCallback failed", "error", err)
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// ChatTitle returns the display title of a chat.
func (c *Client) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := c.bot.ChatByID(chatID)
	if err != nil {
		slog.Error("Client.ChatTitle failed", "error", err, "chatID", chatID)
		return "", fmt.Errorf("failed to fetch chat %d: %w", chatID, err)
	}
	return chat.Title, nil
}

// ChatAdministrators returns the administrators of a group chat.
func (c *Client) ChatAdministrators(ctx context.Context, chatID int64) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chat, err := c.bot.ChatByID(chatID)
	if err != nil {
		slog.Error("Client.ChatAdministrators chat lookup failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to fetch chat %d: %w", chatID, err)
	}
	admins, err := c.bot.AdminsOf(chat)
	if err != nil {
		slog.Error("Client.ChatAdministrators failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to fetch administrators of %d: %w", chatID, err)
	}
	users := make([]models.User, 0, len(admins))
	for _, a := range admins {
		if a.User == nil {
			continue
		}
		users = append(users, convertUser(a.User))
	}
	slog.Debug("Client.ChatAdministrators succeeded", "chatID", chatID, "count", len(users))
	return users, nil
}

// ChatMember returns the user's profile in a chat.
func (c *Client) ChatMember(ctx context.Context, chatID, userID int64) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	chat, err := c.bot.ChatByID(chatID)
	if err != nil {
		slog.Error("Client.ChatMember chat lookup failed", "error", err, "chatID", chatID)
		return models.User{}, fmt.Errorf("failed to fetch chat %d: %w", chatID, err)
	}
	member, err := c.bot.ChatMemberOf(chat, &tele.User{ID: userID})
	if err != nil {
		slog.Error("Client.ChatMember failed", "error", err, "chatID", chatID, "userID", userID)
		return models.User{}, fmt.Errorf("failed to fetch member %d of %d: %w", userID, chatID, err)
	}
	if member.User == nil {
		return models.User{}, fmt.Errorf("member %d of %d has no profile", userID, chatID)
	}
	return convertUser(member.User), nil
}

// Updates returns the channel of incoming updates.
func (c *Client) Updates() <-chan models.Update {
	return c.updates
}

// Start begins long polling for updates. It returns immediately; polling runs
// in a background goroutine until Stop is called.
func (c *Client) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info("Telegram client starting long polling")
	go c.bot.Start()
	return nil
}

// Stop stops polling and releases any handler goroutine blocked on the
// update channel. The channel itself stays open so late handler sends cannot
// panic; consumers shut down through context cancellation instead.
func (c *Client) Stop() error {
	c.stopOnce.Do(func() {
		slog.Info("Telegram client stopping")
		close(c.done)
		c.bot.Stop()
	})
	return nil
}

func convertMessage(m *tele.Message) *models.Message {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return nil
	}
	return &models.Message{
		From: convertUser(m.Sender),
		Chat: convertChat(m.Chat),
		Text: m.Text,
		Time: m.Unixtime,
	}
}

func convertUser(u *tele.User) models.User {
	return models.User{
		ID:        u.ID,
		FirstName: strings.TrimSpace(u.FirstName),
		Username:  u.Username,
	}
}

func convertChat(ch *tele.Chat) models.Chat {
	chatType := models.ChatTypeGroup
	if ch.Type == tele.ChatPrivate {
		chatType = models.ChatTypePrivate
	}
	return models.Chat{
		ID:    ch.ID,
		Type:  chatType,
		Title: ch.Title,
	}
}
