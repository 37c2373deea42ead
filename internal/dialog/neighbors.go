package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Neighbor search: residents look each other up by apartment number, by car
// plate, or one floor up and down from their own apartment.

// handleNeighborArea serves the search submenu.
func (e *Engine) handleNeighborArea(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	slog.Debug("Engine.handleNeighborArea invoked", "userID", userID)

	resident, err := e.store.FindResident(userID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("menu.empty_user"))
	}
	chatID := resident.HouseID
	rows := [][]models.Button{
		models.ButtonRow(e.texts.Get("button.search_apartment"), callback.EncodeInt(patternSearchApart, queryChatID, chatID)),
		models.ButtonRow(e.texts.Get("button.downstairs"), callback.EncodeInt(patternDownstairs, queryChatID, chatID)),
		models.ButtonRow(e.texts.Get("button.upstairs"), callback.EncodeInt(patternUpstairs, queryChatID, chatID)),
		models.ButtonRow(e.texts.Get("button.search_car"), callback.EncodeInt(patternSearchCar, queryChatID, chatID)),
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("menu.neighbor_title"), rows)
}

// handleSearchByApart asks for an apartment number and lists its residents.
func (e *Engine) handleSearchByApart(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("apartment search payload missing chat id")
	}
	if err := e.service.SendMessage(ctx, userID, e.texts.Get("neighbor.ask_apart")); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		n, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil || !models.IsApartNumber(n) {
			return false, e.service.SendMessage(ctx, userID, e.texts.Get("error.format"))
		}
		apart := models.ClampInt16(n)
		header := e.texts.Getf("neighbor.in_apart", apart)
		return true, e.sendResidentsOfApart(ctx, userID, chatID, apart, header)
	})
	return nil
}

// handleSearchByCar asks for a plate and reports the vehicle's driver.
func (e *Engine) handleSearchByCar(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	if err := e.service.SendMessage(ctx, userID, e.texts.Get("neighbor.ask_car")); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		plate := msg.Text
		if !models.IsPlateNumber(plate) {
			return false, e.service.SendMessage(ctx, userID, e.texts.Get("error.car_format"))
		}
		return true, e.sendDriverOfVehicle(ctx, userID, plate)
	})
	return nil
}

func (e *Engine) handleSearchUpstairs(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	return e.searchAdjacentFloor(ctx, cq, payload, +1, "neighbor.upstairs_symbol", "neighbor.upstairs_text")
}

func (e *Engine) handleSearchDownstairs(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	return e.searchAdjacentFloor(ctx, cq, payload, -1, "neighbor.downstairs_symbol", "neighbor.downstairs_text")
}

// searchAdjacentFloor lists the residents of the apartment directly above or
// below the caller's: the apartment number shifted by one floor's worth of
// apartments.
func (e *Engine) searchAdjacentFloor(ctx context.Context, cq models.CallbackQuery, payload callback.Payload, direction int, symbolKey, textKey string) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("neighbor search payload missing chat id")
	}
	resident, err := e.store.FindResident(userID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.resident_not_found"))
	}
	house, err := e.store.FindHouse(chatID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.house_not_found"))
	}

	target := int(resident.Apart) + direction*int(house.ApartPerFloor)
	if !models.IsApartNumber(target) {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.empty_list"))
	}
	header := e.texts.Getf("neighbor.list_title", e.texts.Get(symbolKey), e.texts.Get(textKey))
	return e.sendResidentsOfApart(ctx, userID, chatID, models.ClampInt16(target), header)
}

// sendResidentsOfApart sends a header line followed by one line per
// resident of the apartment.
func (e *Engine) sendResidentsOfApart(ctx context.Context, userID, chatID int64, apart int16, header string) error {
	residents, err := e.store.QueryResidentsByApart(chatID, apart)
	switch {
	case errors.Is(err, models.ErrEmpty):
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.empty_list"))
	case err != nil:
		slog.Error("Neighbor query failed", "error", err, "chatID", chatID, "apart", apart)
		text := e.texts.Get("neighbor.cant_get_list") + e.texts.Get("neighbor.error_prefix") + e.texts.Get("error.try_again")
		return e.service.SendMessage(ctx, userID, text)
	}

	if err := e.service.SendMessage(ctx, userID, header); err != nil {
		return err
	}
	for _, r := range residents {
		if err := e.service.SendMessage(ctx, userID, r.Mention()); err != nil {
			return err
		}
	}
	return nil
}

// sendDriverOfVehicle reports the resident who registered the plate.
func (e *Engine) sendDriverOfVehicle(ctx context.Context, userID int64, plate string) error {
	vehicle, err := e.store.FindVehicleByPlate(plate)
	if errors.Is(err, models.ErrNotFound) {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.empty_list"))
	}
	if err != nil {
		slog.Error("Vehicle lookup failed", "error", err)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.try_again"))
	}
	resident, err := e.store.FindResident(vehicle.ResidentID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.resident_not_found"))
	}
	house, err := e.store.FindHouse(vehicle.HouseID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.house_not_found"))
	}

	var b strings.Builder
	b.WriteString(e.texts.Getf("neighbor.driver", strings.ToUpper(vehicle.Plate)))
	b.WriteString("\n")
	b.WriteString(e.texts.Get("neighbor.person_prefix"))
	b.WriteString(resident.Mention())
	b.WriteString("\n")
	b.WriteString(e.texts.Getf("neighbor.from_chat", house.Name))
	return e.service.SendMessage(ctx, userID, b.String())
}
