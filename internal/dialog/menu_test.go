package dialog

import (
	"context"
	"strings"
	"testing"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	"github.com/DenDmitriev/ConciergeChatBot/internal/texts"
)

func TestMainMenuRows(t *testing.T) {
	catalog, err := texts.NewCatalog()
	if err != nil {
		t.Fatalf("load text catalog: %v", err)
	}

	cases := []struct {
		name      string
		mc        MenuContext
		wantCount int
		wantData  []string
	}{
		{
			name:      "group admin without house sees registration",
			mc:        MenuContext{ChatID: testChatID, InGroup: true, IsAdmin: true},
			wantCount: 1,
			wantData:  []string{"registration?chatId="},
		},
		{
			name:      "group admin with house sees admin area",
			mc:        MenuContext{ChatID: testChatID, InGroup: true, IsAdmin: true, HasHouse: true},
			wantCount: 1,
			wantData:  []string{"admin?chatId="},
		},
		{
			name:      "resident sees account, neighbors and parking",
			mc:        MenuContext{IsResident: true},
			wantCount: 3,
			wantData:  []string{"account", "neighbor", "parking"},
		},
		{
			name:      "group member of registered house sees sign-up",
			mc:        MenuContext{ChatID: testChatID, InGroup: true, HasHouse: true},
			wantCount: 1,
			wantData:  []string{"sign?chatId="},
		},
		{
			name:      "admin resident sees both areas",
			mc:        MenuContext{ChatID: testChatID, InGroup: true, IsAdmin: true, HasHouse: true, IsResident: true},
			wantCount: 4,
			wantData:  []string{"admin?chatId=", "account", "neighbor", "parking"},
		},
		{
			name:      "stranger in private chat sees nothing",
			mc:        MenuContext{},
			wantCount: 0,
		},
		{
			name:      "group member of unregistered house sees nothing",
			mc:        MenuContext{ChatID: testChatID, InGroup: true},
			wantCount: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := MainMenuRows(tc.mc, catalog)
			if len(rows) != tc.wantCount {
				t.Fatalf("row count = %d, want %d: %+v", len(rows), tc.wantCount, rows)
			}
			for i, want := range tc.wantData {
				if !strings.HasPrefix(rows[i][0].Data, want) {
					t.Errorf("row %d data = %q, want prefix %q", i, rows[i][0].Data, want)
				}
			}
		})
	}
}

func groupCommand(text string) models.Message {
	return models.Message{
		From: models.User{ID: testUserID, FirstName: "Иван"},
		Chat: models.Chat{ID: testChatID, Type: models.ChatTypeGroup, Title: testChatTag},
		Text: text,
	}
}

func privateCommand(text string) models.Message {
	return models.Message{
		From: models.User{ID: testUserID, FirstName: "Иван"},
		Chat: models.Chat{ID: testUserID, Type: models.ChatTypePrivate},
		Text: text,
	}
}

func TestConciergeInGroupAnswersInPrivate(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Admins[testChatID] = []models.User{{ID: testUserID}}

	err := env.engine.handleConcierge(context.Background(), groupCommand(ConciergeCommand))
	if err != nil {
		t.Fatalf("handleConcierge failed: %v", err)
	}

	sent := env.svc.Sent()
	if len(sent) != 2 {
		t.Fatalf("message count = %d, want a group notice and a private menu", len(sent))
	}
	if sent[0].ChatID != testChatID || sent[0].Text != env.texts.Get("menu.answer_in_private") {
		t.Errorf("group notice = %+v", sent[0])
	}
	if sent[1].ChatID != testUserID {
		t.Errorf("menu went to chat %d, want the user's private chat", sent[1].ChatID)
	}
	if len(sent[1].Rows) != 1 || !strings.HasPrefix(sent[1].Rows[0][0].Data, "registration?") {
		t.Errorf("admin of an unregistered house got rows %+v, want registration", sent[1].Rows)
	}
}

func TestConciergeGroupAdminWithHouse(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.svc.Admins[testChatID] = []models.User{{ID: testUserID}}

	err := env.engine.handleConcierge(context.Background(), groupCommand(ConciergeCommand))
	if err != nil {
		t.Fatalf("handleConcierge failed: %v", err)
	}

	menu := env.svc.LastSent(t)
	if len(menu.Rows) != 1 || !strings.HasPrefix(menu.Rows[0][0].Data, "admin?") {
		t.Errorf("menu rows = %+v, want the admin area", menu.Rows)
	}
}

func TestConciergeGroupMemberSeesSignUp(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	err := env.engine.handleConcierge(context.Background(), groupCommand(ConciergeCommand))
	if err != nil {
		t.Fatalf("handleConcierge failed: %v", err)
	}

	menu := env.svc.LastSent(t)
	if len(menu.Rows) != 1 || !strings.HasPrefix(menu.Rows[0][0].Data, "sign?") {
		t.Errorf("menu rows = %+v, want the sign-up entry", menu.Rows)
	}
}

func TestConciergeInPrivateForStranger(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.handleConcierge(context.Background(), privateCommand(ConciergeCommand))
	if err != nil {
		t.Fatalf("handleConcierge failed: %v", err)
	}

	got := env.svc.LastSent(t)
	if got.Text != env.texts.Get("menu.empty_user") {
		t.Errorf("stranger got %q, want the empty-user notice", got.Text)
	}
}

func TestConciergeInPrivateForResident(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	err := env.engine.handleConcierge(context.Background(), privateCommand(ConciergeCommand))
	if err != nil {
		t.Fatalf("handleConcierge failed: %v", err)
	}

	menu := env.svc.LastSent(t)
	if len(menu.Rows) != 3 {
		t.Errorf("resident menu rows = %+v, want account, neighbors and parking", menu.Rows)
	}
}

func TestAdminAreaMenu(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	env.press(t, env.engine.handleAdminArea, "admin?chatId=-100200300")

	menu := env.svc.LastSent(t)
	if len(menu.Rows) != 1 || !strings.HasPrefix(menu.Rows[0][0].Data, "editHouse?") {
		t.Errorf("admin rows = %+v, want the edit-house entry", menu.Rows)
	}
}

func TestUnrecognizedTextReoffersMenu(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	err := env.engine.handleUnrecognized(context.Background(), privateCommand("что умеешь?"))
	if err != nil {
		t.Fatalf("handleUnrecognized failed: %v", err)
	}

	menu := env.svc.LastSent(t)
	if menu.Text != env.texts.Get("menu.default_question") || len(menu.Rows) != 3 {
		t.Errorf("fallback menu = %+v", menu)
	}
}
