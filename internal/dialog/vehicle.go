package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// BlockedVehicleHorizon is how long a parking-lock record stays visible.
// Records older than this are purged before every read of the list.
const BlockedVehicleHorizon = 12 * time.Hour

func (e *Engine) vehicleState(userID int64) VehicleState {
	s, _ := e.autoStates.Get(userID)
	return s
}

// handleParkingArea serves the parking submenu. Every entry needs the user's
// journal record to know which house the actions apply to.
func (e *Engine) handleParkingArea(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	slog.Debug("Engine.handleParkingArea invoked", "userID", userID)

	resident, err := e.store.FindResident(userID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("menu.empty_user"))
	}
	chatID := resident.HouseID
	rows := [][]models.Button{
		models.ButtonRow(e.texts.Get("button.blocked"), callback.EncodeInt(patternBlocked, queryChatID, chatID)),
		models.ButtonRow(e.texts.Get("button.add_blocked_auto"), callback.EncodeInt(patternAddBlockedAuto, queryChatID, chatID)),
		models.ButtonRow(e.texts.Get("button.add_resident_auto"), callback.EncodeInt(patternAddResidentAuto, queryChatID, chatID)),
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("menu.default_question"), rows)
}

// handleBlockedList purges expired parking-lock records and lists the rest,
// resolving each driver to a mentionable chat member.
func (e *Engine) handleBlockedList(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("blocked-list payload missing chat id")
	}
	slog.Debug("Engine.handleBlockedList invoked", "userID", userID, "chatID", chatID)

	// One cutoff shared by the purge and the read, so a record is either
	// deleted or returned, never both.
	cutoff := e.now().Add(-BlockedVehicleHorizon)
	if err := e.store.DeleteBlockedVehiclesBefore(cutoff); err != nil {
		slog.Error("Blocked-vehicle purge failed", "error", err)
	}
	blocked, err := e.store.QueryBlockedVehicles(chatID, cutoff)
	if err != nil {
		slog.Error("Blocked-vehicle query failed", "error", err, "chatID", chatID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.empty_list"))
	}
	if len(blocked) == 0 {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.empty_list"))
	}

	if err := e.service.SendMessage(ctx, userID, e.texts.Get("button.blocked")); err != nil {
		return err
	}
	for _, b := range blocked {
		driver, err := e.service.ChatMember(ctx, chatID, b.DriverID)
		if err != nil {
			slog.Error("Blocked-vehicle driver lookup failed", "error", err, "driverID", b.DriverID)
			continue
		}
		line := e.texts.Getf("car.blocked_entry", driver.FirstName, driver.Username, strings.ToUpper(b.Plate))
		if err := e.service.SendMessage(ctx, userID, line); err != nil {
			return err
		}
	}
	return nil
}

// handleAddBlockedVehicle asks for the plate of a blocking car and records
// the report under the reporter's house.
func (e *Engine) handleAddBlockedVehicle(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("blocked-vehicle payload missing chat id")
	}
	slog.Debug("Engine.handleAddBlockedVehicle invoked", "userID", userID, "chatID", chatID)

	if err := e.service.SendMessage(ctx, userID, e.texts.Get("car.ask_blocked_number")); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		plate := msg.Text
		if !models.IsPlateNumber(plate) {
			return false, e.service.SendMessage(ctx, userID, e.texts.Get("error.car_format"))
		}
		record := models.BlockedVehicle{
			ID:        uuid.NewString(),
			DriverID:  userID,
			Plate:     models.NormalizePlate(plate),
			HouseID:   chatID,
			CreatedAt: e.now(),
		}
		if err := e.store.CreateBlockedVehicle(record); err != nil {
			slog.Error("Blocked-vehicle persist failed", "error", err)
			return true, e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
		}
		slog.Info("Blocked vehicle reported", "recordID", record.ID, "houseID", chatID)
		return true, e.service.SendMessage(ctx, userID, e.texts.Getf("car.blocked_added", record.Plate))
	})
	return nil
}

// handleAddVehicleStart begins the two-step vehicle registration workflow.
func (e *Engine) handleAddVehicleStart(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("vehicle payload missing chat id")
	}
	slog.Debug("Engine.handleAddVehicleStart invoked", "userID", userID, "chatID", chatID)

	e.autoDrafts.Set(userID, models.DraftVehicle{ResidentID: userID, HouseID: chatID})
	e.autoStates.Set(userID, NextVehicleState(e.vehicleState(userID), VehicleEventStart))
	return e.advanceVehicle(ctx, userID)
}

func (e *Engine) advanceVehicle(ctx context.Context, userID int64) error {
	state := e.vehicleState(userID)
	slog.Debug("Engine.advanceVehicle", "userID", userID, "state", state)
	switch state {
	case VehicleWaitNumber:
		return e.askVehicleNumber(ctx, userID)
	case VehicleWaitModel:
		return e.askVehicleModel(ctx, userID)
	default:
		return nil
	}
}

func (e *Engine) askVehicleNumber(ctx context.Context, userID int64) error {
	if err := e.service.SendMessage(ctx, userID, e.texts.Get("car.ask_number")); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		plate := msg.Text
		if !models.IsPlateNumber(plate) {
			return false, e.service.SendMessage(ctx, userID, e.texts.Get("error.car_format"))
		}
		draft, ok := e.autoDrafts.Get(userID)
		if !ok {
			return true, nil
		}
		normalized := models.NormalizePlate(plate)
		draft.Plate = &normalized
		e.autoDrafts.Set(userID, draft)
		e.autoStates.Set(userID, NextVehicleState(e.vehicleState(userID), VehicleEventNumber))
		if err := e.service.SendMessage(ctx, userID, e.texts.Getf("car.number_saved", normalized)); err != nil {
			return true, err
		}
		return true, e.advanceVehicle(ctx, userID)
	})
	return nil
}

func (e *Engine) askVehicleModel(ctx context.Context, userID int64) error {
	if err := e.service.SendMessage(ctx, userID, e.texts.Get("car.ask_model")); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		model := strings.TrimSpace(msg.Text)
		if utf8.RuneCountInString(model) > models.MaxVehicleModelLength {
			return false, e.service.SendMessage(ctx, userID, e.texts.Getf("error.car_length", models.MaxVehicleModelLength))
		}
		draft, ok := e.autoDrafts.Get(userID)
		if !ok {
			return true, nil
		}
		draft.Model = &model
		e.autoDrafts.Set(userID, draft)
		e.autoStates.Set(userID, NextVehicleState(e.vehicleState(userID), VehicleEventModel))
		if err := e.service.SendMessage(ctx, userID, e.texts.Getf("car.model_saved", model)); err != nil {
			return true, err
		}
		return true, e.saveVehicle(ctx, userID)
	})
	return nil
}

func (e *Engine) saveVehicle(ctx context.Context, userID int64) error {
	draft, ok := e.autoDrafts.Get(userID)
	if !ok {
		e.autoStates.Remove(userID)
		return nil
	}
	v, err := draft.Build()
	if err != nil {
		e.concludeVehicle(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.try_again"))
	}
	v.ID = uuid.NewString()
	v.CreatedAt = e.now()
	v.UpdatedAt = v.CreatedAt

	// Insert-or-update keyed by the plate.
	err = e.store.CreateVehicle(v)
	if errors.Is(err, models.ErrAlreadyExists) {
		err = e.store.UpdateVehicle(v)
	}
	if err != nil {
		slog.Error("Vehicle persist failed", "error", err, "residentID", v.ResidentID)
		e.concludeVehicle(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
	}
	slog.Info("Vehicle registered", "vehicleID", v.ID, "residentID", v.ResidentID)
	e.concludeVehicle(userID)
	text := fmt.Sprintf("%s\n%s", v.Describe(), e.texts.Get("car.saved_suffix"))
	return e.service.SendMessage(ctx, userID, text)
}

func (e *Engine) concludeVehicle(userID int64) {
	e.autoStates.Remove(userID)
	e.autoDrafts.Remove(userID)
}
