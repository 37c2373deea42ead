// Package testutil provides common test utilities and helpers for concierge tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// SentMessage records one outbound message captured by the fake service.
type SentMessage struct {
	ChatID int64
	Text   string
	Rows   [][]models.Button
}

// FakeService is an in-memory messaging.Service for dialog tests. It records
// everything sent and lets tests feed updates through its channel.
type FakeService struct {
	mu   sync.Mutex
	sent []SentMessage

	// ChatTitles maps chat id to title returned by ChatTitle.
	ChatTitles map[int64]string
	// Admins maps chat id to administrator users.
	Admins map[int64][]models.User
	// Members maps chat id to its member users by user id.
	Members map[int64]map[int64]models.User

	updates chan models.Update
}

// NewFakeService creates an empty fake transport.
func NewFakeService() *FakeService {
	return &FakeService{
		ChatTitles: make(map[int64]string),
		Admins:     make(map[int64][]models.User),
		Members:    make(map[int64]map[int64]models.User),
		updates:    make(chan models.Update, 16),
	}
}

func (f *FakeService) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *FakeService) SendButtons(_ context.Context, chatID int64, text string, rows [][]models.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, SentMessage{ChatID: chatID, Text: text, Rows: rows})
	return nil
}

func (f *FakeService) AnswerCallback(_ context.Context, _ string, _ string) error {
	return nil
}

func (f *FakeService) ChatTitle(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChatTitles[chatID], nil
}

func (f *FakeService) ChatAdministrators(_ context.Context, chatID int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Admins[chatID], nil
}

func (f *FakeService) ChatMember(_ context.Context, chatID, userID int64) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if members, ok := f.Members[chatID]; ok {
		if u, ok := members[userID]; ok {
			return u, nil
		}
	}
	return models.User{ID: userID}, nil
}

func (f *FakeService) Updates() <-chan models.Update {
	return f.updates
}

func (f *FakeService) Start(_ context.Context) error { return nil }

func (f *FakeService) Stop() error {
	close(f.updates)
	return nil
}

// Push feeds one update into the channel.
func (f *FakeService) Push(u models.Update) {
	f.updates <- u
}

// Sent returns a copy of everything sent so far.
func (f *FakeService) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// LastSent returns the most recent outbound message.
func (f *FakeService) LastSent(t *testing.T) SentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no messages were sent")
	}
	return f.sent[len(f.sent)-1]
}

// Reset drops the recorded messages.
func (f *FakeService) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// AssertSentContains fails unless some recorded message contains the
// substring.
func (f *FakeService) AssertSentContains(t *testing.T, substring string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.sent {
		if strings.Contains(m.Text, substring) {
			return
		}
	}
	t.Errorf("no sent message contains %q (sent %d messages)", substring, len(f.sent))
}

// AssertNoError fails the test when err is non-nil.
func AssertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", context, err)
	}
}

// TextMessage builds a private text update from the user.
func TextMessage(userID int64, text string) models.Update {
	return models.Update{Message: &models.Message{
		From: models.User{ID: userID},
		Chat: models.Chat{ID: userID, Type: models.ChatTypePrivate},
		Text: text,
	}}
}

// CallbackPress builds a callback update from the user with encoded data.
func CallbackPress(userID int64, data string) models.Update {
	return models.Update{Callback: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: userID},
		Chat: models.Chat{ID: userID, Type: models.ChatTypePrivate},
		Data: data,
	}}
}
