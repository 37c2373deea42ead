package dialog

import (
	"errors"
	"strings"
	"testing"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

func signStartData() string {
	return callback.EncodeInt("sign", "chatId", testChatID)
}

func consentData(value string) string {
	return callback.Encode("storagePersonalData", "storagePersonalData", value)
}

func TestSignupHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	env.press(t, env.engine.handleSignupStart, signStartData())

	sent := env.svc.Sent()
	if len(sent) != 2 {
		t.Fatalf("message count = %d, want the agreement and the consent question", len(sent))
	}
	if !strings.Contains(sent[0].Text, testChatTag) {
		t.Errorf("agreement does not mention the chat: %q", sent[0].Text)
	}
	if len(sent[1].Rows) != 2 {
		t.Fatalf("consent rows = %+v", sent[1].Rows)
	}

	env.press(t, env.engine.handleConsentAnswer, consentData("true"))

	floorMenu := env.svc.LastSent(t)
	if floorMenu.Text != env.texts.Get("sign.ask_floor") {
		t.Fatalf("after consent got %q, want the floor question", floorMenu.Text)
	}
	if len(floorMenu.Rows) != 9 {
		t.Fatalf("floor rows = %d, want one per floor", len(floorMenu.Rows))
	}
	// Keyboards list the top floor first.
	if floorMenu.Rows[0][0].Data != callback.EncodeInt("floor", "floor", 9) {
		t.Errorf("first floor row data = %q", floorMenu.Rows[0][0].Data)
	}

	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 3))

	apartMenu := env.svc.LastSent(t)
	if apartMenu.Text != env.texts.Get("sign.ask_apart") {
		t.Fatalf("after floor got %q, want the apartment question", apartMenu.Text)
	}
	if len(apartMenu.Rows) != 4 {
		t.Fatalf("apartment rows = %d, want one per apartment", len(apartMenu.Rows))
	}
	if apartMenu.Rows[0][0].Data != callback.EncodeInt("apart", "apart", 9) {
		t.Errorf("first apartment row data = %q, want apartment 9 on floor 3", apartMenu.Rows[0][0].Data)
	}

	env.press(t, env.engine.handleApartChosen, callback.EncodeInt("apart", "apart", 12))

	confirm := env.svc.LastSent(t)
	if !strings.Contains(confirm.Text, env.texts.Get("sign.confirm")) {
		t.Fatalf("confirmation = %q", confirm.Text)
	}

	env.press(t, env.engine.handleIsRight, approveData("Да"))

	env.svc.AssertSentContains(t, "успешно записан в журнал")
	r, err := env.store.FindResident(testUserID)
	if err != nil {
		t.Fatalf("resident was not persisted: %v", err)
	}
	if r.Floor != 3 || r.Apart != 12 || r.HouseID != testChatID {
		t.Errorf("persisted resident = %+v", r)
	}
	if r.Name != "Иван" || r.Username != "ivan" {
		t.Errorf("resident identity = %+v", r)
	}
}

func TestSignupConsentDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	env.press(t, env.engine.handleSignupStart, signStartData())
	env.press(t, env.engine.handleConsentAnswer, consentData("false"))

	if got := env.svc.LastSent(t).Text; got != env.texts.Get("sign.consent_declined") {
		t.Fatalf("declined consent got %q", got)
	}

	// The workflow is over: a floor press afterwards is ignored.
	before := len(env.svc.Sent())
	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 3))
	if got := len(env.svc.Sent()); got != before {
		t.Error("floor press after declined consent was not ignored")
	}
	if _, err := env.store.FindResident(testUserID); !errors.Is(err, models.ErrNotFound) {
		t.Error("declined consent still persisted a resident")
	}
}

func TestSignupRejectedSummaryReturnsToFloor(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	env.press(t, env.engine.handleSignupStart, signStartData())
	env.press(t, env.engine.handleConsentAnswer, consentData("true"))
	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 3))
	env.press(t, env.engine.handleApartChosen, callback.EncodeInt("apart", "apart", 12))

	env.press(t, env.engine.handleIsRight, approveData("Нет"))

	if got := env.svc.LastSent(t).Text; got != env.texts.Get("sign.ask_floor") {
		t.Fatalf("after rejection got %q, want the floor question again", got)
	}

	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 5))
	env.press(t, env.engine.handleApartChosen, callback.EncodeInt("apart", "apart", 18))
	env.press(t, env.engine.handleIsRight, approveData("Да"))

	r, err := env.store.FindResident(testUserID)
	if err != nil {
		t.Fatalf("resident was not persisted: %v", err)
	}
	if r.Floor != 5 || r.Apart != 18 {
		t.Errorf("persisted resident = %+v, want the corrected answers", r)
	}
}

func TestSignupRewritesExistingRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleSignupStart, signStartData())
	env.press(t, env.engine.handleConsentAnswer, consentData("true"))
	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 7))
	env.press(t, env.engine.handleApartChosen, callback.EncodeInt("apart", "apart", 27))
	env.press(t, env.engine.handleIsRight, approveData("Да"))

	r, err := env.store.FindResident(testUserID)
	if err != nil {
		t.Fatalf("FindResident failed: %v", err)
	}
	if r.Floor != 7 || r.Apart != 27 {
		t.Errorf("re-signing did not rewrite the record: %+v", r)
	}
}

func TestSignupWithoutHouseReportsError(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, env.engine.handleSignupStart, signStartData())
	env.press(t, env.engine.handleConsentAnswer, consentData("true"))

	if got := env.svc.LastSent(t).Text; got != env.texts.Get("error.house_not_found") {
		t.Errorf("sign-up without a registered house got %q", got)
	}
}

func TestFloorPressIgnoredOutsideWorkflow(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)

	env.press(t, env.engine.handleFloorChosen, callback.EncodeInt("floor", "floor", 3))
	env.press(t, env.engine.handleApartChosen, callback.EncodeInt("apart", "apart", 12))

	if got := len(env.svc.Sent()); got != 0 {
		t.Errorf("stray floor and apartment presses produced %d messages", got)
	}
}
