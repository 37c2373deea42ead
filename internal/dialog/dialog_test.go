package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/messaging"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	"github.com/DenDmitriev/ConciergeChatBot/internal/store"
	"github.com/DenDmitriev/ConciergeChatBot/internal/testutil"
	"github.com/DenDmitriev/ConciergeChatBot/internal/texts"
)

const (
	testChatID  = int64(-100200300)
	testUserID  = int64(7000)
	testChatTag = "Дом 1"
)

type testEnv struct {
	engine    *Engine
	svc       *testutil.FakeService
	store     *store.InMemoryStore
	listeners *messaging.ListenerRegistry
	texts     *texts.Catalog
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	catalog, err := texts.NewCatalog()
	if err != nil {
		t.Fatalf("load text catalog: %v", err)
	}
	svc := testutil.NewFakeService()
	svc.ChatTitles[testChatID] = testChatTag
	st := store.NewInMemoryStore()
	listeners := messaging.NewListenerRegistry()
	return &testEnv{
		engine:    NewEngine(st, svc, listeners, catalog, opts...),
		svc:       svc,
		store:     st,
		listeners: listeners,
		texts:     catalog,
	}
}

// seedHouse registers the standard nine-floor test house.
func (env *testEnv) seedHouse(t *testing.T) models.House {
	t.Helper()
	h := models.House{
		ID:            testChatID,
		Name:          testChatTag,
		FirstFloor:    1,
		LastFloor:     9,
		ApartPerFloor: 4,
		FirstApart:    1,
	}
	testutil.AssertNoError(t, env.store.CreateHouse(h), "seed house")
	return h
}

// seedResident writes a journal record for the test user.
func (env *testEnv) seedResident(t *testing.T) models.Resident {
	t.Helper()
	r := models.Resident{
		ID:       testUserID,
		Name:     "Иван",
		Username: "ivan",
		Apart:    12,
		Floor:    3,
		HouseID:  testChatID,
	}
	testutil.AssertNoError(t, env.store.CreateResident(r), "seed resident")
	return r
}

type callbackHandler func(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error

// press simulates an inline-button press routed to the given handler.
func (env *testEnv) press(t *testing.T, fn callbackHandler, data string) {
	t.Helper()
	payload, err := callback.Parse(data)
	if err != nil {
		t.Fatalf("parse callback data %q: %v", data, err)
	}
	cq := models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: testUserID, FirstName: "Иван", Username: "ivan"},
		Chat: models.Chat{ID: testUserID, Type: models.ChatTypePrivate},
		Data: data,
	}
	if err := fn(context.Background(), cq, payload); err != nil {
		t.Fatalf("callback handler for %q failed: %v", data, err)
	}
}

// reply simulates the user answering a free-text prompt.
func (env *testEnv) reply(t *testing.T, text string) {
	t.Helper()
	msg := models.Message{
		From: models.User{ID: testUserID, FirstName: "Иван", Username: "ivan"},
		Chat: models.Chat{ID: testUserID, Type: models.ChatTypePrivate},
		Text: text,
	}
	handled, err := env.listeners.DispatchText(context.Background(), msg)
	if err != nil {
		t.Fatalf("listener for %q failed: %v", text, err)
	}
	if !handled {
		t.Fatalf("no listener consumed the reply %q", text)
	}
}

func fixedClock(at time.Time) Option {
	return WithNow(func() time.Time { return at })
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache[int]()
	if _, ok := c.Get(1); ok {
		t.Error("empty cache reported a value")
	}
	c.Set(1, 42)
	got, ok := c.Get(1)
	if !ok || got != 42 {
		t.Errorf("Get = %d, %v; want 42, true", got, ok)
	}
	c.Set(1, 43)
	if got, _ := c.Get(1); got != 43 {
		t.Errorf("Get after overwrite = %d, want 43", got)
	}
	c.Remove(1)
	if _, ok := c.Get(1); ok {
		t.Error("removed entry still present")
	}
	c.Remove(1)
}
