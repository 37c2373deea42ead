package dialog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Account area: the resident reviews their journal record and garage, or
// checks out of the registry entirely.

func (e *Engine) handleAccountArea(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	slog.Debug("Engine.handleAccountArea invoked", "userID", userID)
	rows := [][]models.Button{
		models.ButtonRow(e.texts.Get("button.look"), patternLook),
		models.ButtonRow(e.texts.Get("button.check_out"), patternCheckOut),
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("menu.account_title"), rows)
}

// handleLook sends the user's record: house, floor and apartment, garage.
func (e *Engine) handleLook(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	slog.Debug("Engine.handleLook invoked", "userID", userID)

	resident, err := e.store.FindResident(userID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.resident_not_found"))
	}

	var b strings.Builder
	if house, err := e.store.FindHouse(resident.HouseID); err == nil {
		b.WriteString(house.Name)
		b.WriteString(".\n")
	} else {
		b.WriteString(e.texts.Get("error.house_not_found"))
		b.WriteString("\n")
	}
	b.WriteString(resident.Describe())
	b.WriteString("\n")

	vehicles, err := e.store.VehiclesByResident(userID)
	switch {
	case err != nil:
		slog.Error("Garage lookup failed", "error", err, "residentID", userID)
		b.WriteString(e.texts.Get("error.try_again"))
	case len(vehicles) == 0:
		b.WriteString(e.texts.Get("account.no_cars"))
	default:
		b.WriteString(e.texts.Get("account.garage"))
		for _, v := range vehicles {
			b.WriteString(v.Describe())
			b.WriteString("\n")
		}
	}
	return e.service.SendMessage(ctx, userID, b.String())
}

// handleCheckOut deletes the user's journal record.
func (e *Engine) handleCheckOut(ctx context.Context, cq models.CallbackQuery, _ callback.Payload) error {
	userID := cq.From.ID
	slog.Debug("Engine.handleCheckOut invoked", "userID", userID)

	resident, err := e.store.FindResident(userID)
	if err != nil {
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.resident_not_found"))
	}
	if err := e.store.DeleteResident(userID); err != nil {
		slog.Error("Check-out failed", "error", err, "residentID", userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
	}
	slog.Info("Resident checked out", "residentID", userID)
	return e.service.SendMessage(ctx, userID, e.texts.Getf("account.checked_out", resident.Name))
}
