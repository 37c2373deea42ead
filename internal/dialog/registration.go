package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// House registration: an administrator answers four numeric questions about
// the building, confirms the summary and the house is persisted under the
// group chat id. When a house already exists the workflow offers to replace
// it.

func (e *Engine) regState(userID int64) RegistrationState {
	s, _ := e.regStates.Get(userID)
	return s
}

func (e *Engine) handleRegistrationStart(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	return e.startRegistration(ctx, cq, payload, "registration.start")
}

func (e *Engine) handleEditHouseStart(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	return e.startRegistration(ctx, cq, payload, "registration.edit")
}

func (e *Engine) startRegistration(ctx context.Context, cq models.CallbackQuery, payload callback.Payload, introKey string) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("registration payload missing chat id")
	}
	slog.Debug("Engine.startRegistration invoked", "userID", userID, "chatID", chatID)

	title, err := e.service.ChatTitle(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to resolve chat title: %w", err)
	}
	if err := e.service.SendMessage(ctx, userID, e.texts.Getf(introKey, title)); err != nil {
		return err
	}

	// A fresh entry overwrites whatever stale draft was left behind.
	e.regDrafts.Set(userID, models.DraftHouse{ID: chatID, Name: title})
	e.regStates.Set(userID, NextRegistrationState(e.regState(userID), RegEventStart))
	return e.advanceRegistration(ctx, userID)
}

// advanceRegistration prompts for whatever the current state is waiting on.
func (e *Engine) advanceRegistration(ctx context.Context, userID int64) error {
	state := e.regState(userID)
	slog.Debug("Engine.advanceRegistration", "userID", userID, "state", state)
	switch state {
	case RegWaitLowFloor:
		return e.askHouseNumber(ctx, userID, "registration.ask_low_floor", func(d *models.DraftHouse, n int) {
			d.FirstFloor = &n
		})
	case RegWaitLastFloor:
		return e.askHouseNumber(ctx, userID, "registration.ask_last_floor", func(d *models.DraftHouse, n int) {
			d.LastFloor = &n
		})
	case RegWaitApartPerFloor:
		return e.askHouseNumber(ctx, userID, "registration.ask_apart_per_floor", func(d *models.DraftHouse, n int) {
			d.ApartPerFloor = &n
		})
	case RegWaitFirstApart:
		return e.askHouseNumber(ctx, userID, "registration.ask_first_apart", func(d *models.DraftHouse, n int) {
			d.FirstApart = &n
		})
	case RegWaitApprove:
		draft, ok := e.regDrafts.Get(userID)
		if !ok {
			e.regStates.Remove(userID)
			return nil
		}
		text := e.texts.Get("registration.confirm") + "\n" + draft.Describe()
		return e.service.SendButtons(ctx, userID, text, e.confirmRows(patternIsRight, queryIsRight))
	default:
		return nil
	}
}

// askHouseNumber sends a prompt and installs a one-shot listener that parses
// the reply as an integer into the draft. A malformed reply re-prompts
// without consuming the listener.
func (e *Engine) askHouseNumber(ctx context.Context, userID int64, promptKey string, assign func(*models.DraftHouse, int)) error {
	if err := e.service.SendMessage(ctx, userID, e.texts.Get(promptKey)); err != nil {
		return err
	}
	e.listeners.Add(uuid.NewString(), userID, func(ctx context.Context, msg models.Message) (bool, error) {
		n, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil {
			return false, e.service.SendMessage(ctx, userID, e.texts.Get("error.format"))
		}
		draft, ok := e.regDrafts.Get(userID)
		if !ok {
			// The workflow concluded elsewhere; swallow the input.
			return true, nil
		}
		assign(&draft, n)
		e.regDrafts.Set(userID, draft)
		e.regStates.Set(userID, NextRegistrationState(e.regState(userID), RegEventInput))
		return true, e.advanceRegistration(ctx, userID)
	})
	return nil
}

// handleIsRight answers the shared Да/Нет confirmation. The active workflow
// is determined by the user's dialog state.
func (e *Engine) handleIsRight(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	answer, ok := payload.String(queryIsRight)
	if !ok {
		return errors.New("confirmation payload missing answer")
	}
	userID := cq.From.ID
	switch {
	case e.regState(userID) == RegWaitApprove:
		return e.finishRegistration(ctx, userID, answer == e.yes())
	case e.signState(userID) == SignWaitApprove:
		return e.finishSignup(ctx, userID, answer == e.yes())
	default:
		slog.Debug("Engine.handleIsRight ignored, no workflow awaiting approval", "userID", userID)
		return nil
	}
}

func (e *Engine) finishRegistration(ctx context.Context, userID int64, approved bool) error {
	if !approved {
		e.regStates.Set(userID, NextRegistrationState(RegWaitApprove, RegEventApproveNo))
		return e.advanceRegistration(ctx, userID)
	}

	draft, ok := e.regDrafts.Get(userID)
	if !ok {
		e.regStates.Remove(userID)
		return nil
	}
	h, err := draft.Build()
	if err != nil {
		e.concludeRegistration(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.try_again"))
	}
	h.CreatedAt = e.now()
	h.UpdatedAt = h.CreatedAt

	err = e.store.CreateHouse(h)
	switch {
	case err == nil:
		slog.Info("House registered", "houseID", h.ID, "name", h.Name)
		e.concludeRegistration(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Getf("registration.saved", h.Name))
	case errors.Is(err, models.ErrAlreadyExists):
		if err := e.service.SendMessage(ctx, userID, e.texts.Getf("error.already_exist", h.Name)); err != nil {
			return err
		}
		e.regStates.Set(userID, NextRegistrationState(RegWaitApprove, RegEventExists))
		return e.offerHouseUpdate(ctx, userID, draft)
	default:
		slog.Error("House registration persist failed", "error", err, "houseID", h.ID)
		e.concludeRegistration(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
	}
}

// offerHouseUpdate shows the existing record next to the new one and asks
// whether to replace it.
func (e *Engine) offerHouseUpdate(ctx context.Context, userID int64, draft models.DraftHouse) error {
	text := e.texts.Get("registration.update_confirm")
	if existing, err := e.store.FindHouse(draft.ID); err == nil {
		text += "\n\n" + e.texts.Get("registration.update_existing") + "\n\n" + existing.Describe()
		text += "\n\n" + e.texts.Get("registration.update_new") + "\n\n" + draft.Describe()
	}
	return e.service.SendButtons(ctx, userID, text, e.confirmRows(patternUpdate, queryUpdate))
}

func (e *Engine) handleHouseUpdateAnswer(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	if e.regState(userID) != RegWaitUpdate {
		slog.Debug("Engine.handleHouseUpdateAnswer ignored, not awaiting update", "userID", userID)
		return nil
	}
	answer, ok := payload.String(queryUpdate)
	if !ok {
		return errors.New("update payload missing answer")
	}

	draft, hasDraft := e.regDrafts.Get(userID)
	e.regStates.Set(userID, NextRegistrationState(RegWaitUpdate, RegEventUpdateAnswered))

	if answer != e.yes() || !hasDraft {
		e.regDrafts.Remove(userID)
		return nil
	}
	h, err := draft.Build()
	if err != nil {
		e.regDrafts.Remove(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.try_again"))
	}
	e.regDrafts.Remove(userID)
	if err := e.store.UpdateHouse(h); err != nil {
		slog.Error("House update failed", "error", err, "houseID", h.ID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
	}
	slog.Info("House updated", "houseID", h.ID, "name", h.Name)
	return e.service.SendMessage(ctx, userID, e.texts.Getf("registration.saved", h.Name))
}

func (e *Engine) concludeRegistration(userID int64) {
	e.regStates.Remove(userID)
	e.regDrafts.Remove(userID)
}
