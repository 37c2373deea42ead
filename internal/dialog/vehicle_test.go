package dialog

import (
	"strings"
	"testing"
	"time"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	"github.com/DenDmitriev/ConciergeChatBot/internal/testutil"
)

func TestParkingAreaRequiresResident(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, env.engine.handleParkingArea, "parking")

	if got := env.svc.LastSent(t).Text; got != env.texts.Get("menu.empty_user") {
		t.Errorf("stranger got %q, want the empty-user notice", got)
	}
}

func TestParkingAreaMenu(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleParkingArea, "parking")

	menu := env.svc.LastSent(t)
	if len(menu.Rows) != 3 {
		t.Fatalf("parking rows = %+v", menu.Rows)
	}
	for i, prefix := range []string{"blocked?", "addBlockedAuto?", "addResidentAuto?"} {
		if !strings.HasPrefix(menu.Rows[i][0].Data, prefix) {
			t.Errorf("row %d data = %q, want prefix %q", i, menu.Rows[i][0].Data, prefix)
		}
	}
}

func TestVehicleRegistrationHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleAddVehicleStart, callback.EncodeInt("addResidentAuto", "chatId", testChatID))
	if got := env.svc.LastSent(t).Text; got != env.texts.Get("car.ask_number") {
		t.Fatalf("got %q, want the plate question", got)
	}

	env.reply(t, "А123ВЕ78")
	env.svc.AssertSentContains(t, env.texts.Get("car.ask_model"))

	env.reply(t, "Lada Vesta")

	final := env.svc.LastSent(t)
	if !strings.Contains(final.Text, env.texts.Get("car.saved_suffix")) {
		t.Fatalf("final message = %q", final.Text)
	}
	if !strings.Contains(final.Text, "А123ВЕ78") {
		t.Errorf("final message does not show the plate uppercase: %q", final.Text)
	}

	v, err := env.store.FindVehicleByPlate("а123ве78")
	if err != nil {
		t.Fatalf("vehicle was not persisted: %v", err)
	}
	if v.Model != "Lada Vesta" || v.ResidentID != testUserID || v.HouseID != testChatID {
		t.Errorf("persisted vehicle = %+v", v)
	}
	if env.listeners.Len() != 0 {
		t.Errorf("listeners left installed after completion: %d", env.listeners.Len())
	}
}

func TestVehicleRegistrationRejectsBadPlate(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleAddVehicleStart, callback.EncodeInt("addResidentAuto", "chatId", testChatID))

	env.reply(t, "abc123")
	if got := env.svc.LastSent(t).Text; got != env.texts.Get("error.car_format") {
		t.Fatalf("bad plate got %q", got)
	}
	if env.listeners.Len() != 1 {
		t.Fatal("listener was consumed by the rejected plate")
	}

	env.reply(t, "а123ве78")
	env.svc.AssertSentContains(t, env.texts.Get("car.ask_model"))
}

func TestVehicleRegistrationRejectsLongModel(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleAddVehicleStart, callback.EncodeInt("addResidentAuto", "chatId", testChatID))
	env.reply(t, "а123ве78")

	env.reply(t, "Очень длинное название модели")
	env.svc.AssertSentContains(t, "Длина не должна превышать")
	if env.listeners.Len() != 1 {
		t.Fatal("listener was consumed by the rejected model")
	}

	env.reply(t, "Lada")
	if _, err := env.store.FindVehicleByPlate("а123ве78"); err != nil {
		t.Errorf("vehicle was not persisted after retry: %v", err)
	}
}

func TestVehicleReRegistrationUpdatesByPlate(t *testing.T) {
	env := newTestEnv(t)
	env.seedHouse(t)
	env.seedResident(t)
	testutil.AssertNoError(t, env.store.CreateVehicle(models.Vehicle{
		ID: "old", Plate: "а123ве78", Model: "Lada", ResidentID: testUserID, HouseID: testChatID,
	}), "seed vehicle")

	env.press(t, env.engine.handleAddVehicleStart, callback.EncodeInt("addResidentAuto", "chatId", testChatID))
	env.reply(t, "а123ве78")
	env.reply(t, "Kia Rio")

	v, err := env.store.FindVehicleByPlate("а123ве78")
	if err != nil {
		t.Fatalf("FindVehicleByPlate failed: %v", err)
	}
	if v.Model != "Kia Rio" {
		t.Errorf("model after re-registration = %q, want Kia Rio", v.Model)
	}
}

func TestAddBlockedVehicle(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, fixedClock(at))
	env.seedHouse(t)
	env.seedResident(t)

	env.press(t, env.engine.handleAddBlockedVehicle, callback.EncodeInt("addBlockedAuto", "chatId", testChatID))
	if got := env.svc.LastSent(t).Text; got != env.texts.Get("car.ask_blocked_number") {
		t.Fatalf("got %q, want the blocked-plate question", got)
	}

	env.reply(t, "нет номера")
	if got := env.svc.LastSent(t).Text; got != env.texts.Get("error.car_format") {
		t.Fatalf("bad plate got %q", got)
	}

	env.reply(t, "В567ОР178")
	env.svc.AssertSentContains(t, "успешно добавлен в список запертых")

	records, err := env.store.QueryBlockedVehicles(testChatID, at.Add(-BlockedVehicleHorizon))
	if err != nil {
		t.Fatalf("QueryBlockedVehicles failed: %v", err)
	}
	if len(records) != 1 || records[0].Plate != "в567ор178" || records[0].DriverID != testUserID {
		t.Errorf("persisted records = %+v", records)
	}
}

func TestBlockedListExpiry(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, fixedClock(at))
	env.seedHouse(t)
	env.seedResident(t)
	env.svc.Members = map[int64]map[int64]models.User{
		testChatID: {
			1: {ID: 1, FirstName: "Пётр", Username: "petr"},
			2: {ID: 2, FirstName: "Олег", Username: "oleg"},
		},
	}

	seed := func(id string, driverID int64, plate string, age time.Duration) {
		testutil.AssertNoError(t, env.store.CreateBlockedVehicle(models.BlockedVehicle{
			ID: id, DriverID: driverID, Plate: plate, HouseID: testChatID, CreatedAt: at.Add(-age),
		}), "seed blocked vehicle")
	}
	seed("stale", 1, "а111аа78", BlockedVehicleHorizon+time.Second)
	seed("fresh", 2, "а222аа78", BlockedVehicleHorizon-time.Minute)

	env.press(t, env.engine.handleBlockedList, callback.EncodeInt("blocked", "chatId", testChatID))

	sent := env.svc.Sent()
	if len(sent) != 2 {
		t.Fatalf("message count = %d, want a header and one entry", len(sent))
	}
	if !strings.Contains(sent[1].Text, "А222АА78") {
		t.Errorf("entry = %q, want the fresh plate uppercase", sent[1].Text)
	}
	if !strings.Contains(sent[1].Text, "Олег") {
		t.Errorf("entry = %q, want the driver's name", sent[1].Text)
	}

	// The purge removed the stale record for good.
	records, err := env.store.QueryBlockedVehicles(testChatID, at.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("QueryBlockedVehicles failed: %v", err)
	}
	for _, b := range records {
		if b.ID == "stale" {
			t.Error("expired record survived the purge")
		}
	}
}

func TestBlockedListEmpty(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, fixedClock(at))
	env.seedHouse(t)
	env.seedResident(t)

	testutil.AssertNoError(t, env.store.CreateBlockedVehicle(models.BlockedVehicle{
		ID: "stale", DriverID: 1, Plate: "а111аа78", HouseID: testChatID,
		CreatedAt: at.Add(-BlockedVehicleHorizon - time.Second),
	}), "seed blocked vehicle")

	env.press(t, env.engine.handleBlockedList, callback.EncodeInt("blocked", "chatId", testChatID))

	if got := env.svc.LastSent(t).Text; got != env.texts.Get("error.empty_list") {
		t.Errorf("expired-only list got %q, want the empty notice", got)
	}
}
