package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Resident sign-up: the user consents to personal-data storage, picks a
// floor and an apartment from keyboards computed for the house, confirms and
// is written into the journal. Declined consent ends the workflow.

func (e *Engine) signState(userID int64) SignupState {
	s, _ := e.signStates.Get(userID)
	return s
}

func (e *Engine) handleSignupStart(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("sign-up payload missing chat id")
	}
	slog.Debug("Engine.handleSignupStart invoked", "userID", userID, "chatID", chatID)

	e.signDrafts.Set(userID, models.DraftResident{
		ID:       userID,
		Name:     cq.From.FirstName,
		Username: cq.From.Username,
		HouseID:  chatID,
	})
	e.signStates.Set(userID, NextSignupState(e.signState(userID), SignEventStart))
	return e.advanceSignup(ctx, userID)
}

func (e *Engine) advanceSignup(ctx context.Context, userID int64) error {
	state := e.signState(userID)
	slog.Debug("Engine.advanceSignup", "userID", userID, "state", state)
	switch state {
	case SignWaitConsent:
		return e.askConsent(ctx, userID)
	case SignWaitFloor:
		return e.askFloor(ctx, userID)
	case SignWaitApart:
		return e.askApart(ctx, userID)
	case SignWaitApprove:
		draft, ok := e.signDrafts.Get(userID)
		if !ok {
			e.signStates.Remove(userID)
			return nil
		}
		text := e.texts.Get("sign.confirm") + "\n" + draft.Describe()
		return e.service.SendButtons(ctx, userID, text, e.confirmRows(patternIsRight, queryIsRight))
	default:
		return nil
	}
}

func (e *Engine) askConsent(ctx context.Context, userID int64) error {
	draft, ok := e.signDrafts.Get(userID)
	if !ok {
		return nil
	}
	title, err := e.service.ChatTitle(ctx, draft.HouseID)
	if err != nil {
		return fmt.Errorf("failed to resolve chat title: %w", err)
	}
	if err := e.service.SendMessage(ctx, userID, e.texts.Agreement(title)); err != nil {
		return err
	}
	rows := [][]models.Button{
		models.ButtonRow(e.texts.Get("button.consent_yes"), callback.Encode(patternConsent, queryConsent, "true")),
		models.ButtonRow(e.texts.Get("button.consent_no"), callback.Encode(patternConsent, queryConsent, "false")),
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("sign.consent_title"), rows)
}

func (e *Engine) handleConsentAnswer(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	if e.signState(userID) != SignWaitConsent {
		slog.Debug("Engine.handleConsentAnswer ignored, not awaiting consent", "userID", userID)
		return nil
	}
	answer, ok := payload.String(queryConsent)
	if !ok {
		return errors.New("consent payload missing answer")
	}

	if answer != "true" {
		slog.Info("Sign-up consent declined", "userID", userID)
		e.concludeSignup(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("sign.consent_declined"))
	}

	draft, hasDraft := e.signDrafts.Get(userID)
	if !hasDraft {
		e.signStates.Remove(userID)
		return nil
	}
	title, err := e.service.ChatTitle(ctx, draft.HouseID)
	if err != nil {
		return fmt.Errorf("failed to resolve chat title: %w", err)
	}
	if err := e.service.SendMessage(ctx, userID, e.texts.Getf("sign.new_record", title)); err != nil {
		return err
	}
	e.signStates.Set(userID, NextSignupState(SignWaitConsent, SignEventConsentYes))
	return e.advanceSignup(ctx, userID)
}

func (e *Engine) askFloor(ctx context.Context, userID int64) error {
	draft, ok := e.signDrafts.Get(userID)
	if !ok {
		return nil
	}
	floors, err := e.houses.Floors(draft.HouseID)
	if err != nil {
		slog.Error("Engine.askFloor house lookup failed", "error", err, "houseID", draft.HouseID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.house_not_found"))
	}
	rows := make([][]models.Button, 0, len(floors))
	for _, floor := range floors {
		rows = append(rows, models.ButtonRow(
			e.texts.Getf("button.floor", floor),
			callback.EncodeInt(patternFloor, queryFloor, int64(floor)),
		))
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("sign.ask_floor"), rows)
}

func (e *Engine) handleFloorChosen(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	if e.signState(userID) != SignWaitFloor {
		slog.Debug("Engine.handleFloorChosen ignored, not awaiting floor", "userID", userID)
		return nil
	}
	floor, ok := payload.Int(queryFloor)
	if !ok {
		return errors.New("floor payload missing number")
	}
	draft, hasDraft := e.signDrafts.Get(userID)
	if !hasDraft {
		e.signStates.Remove(userID)
		return nil
	}
	n := int(models.ClampInt8(int(floor)))
	draft.Floor = &n
	e.signDrafts.Set(userID, draft)
	e.signStates.Set(userID, NextSignupState(SignWaitFloor, SignEventFloorChosen))
	return e.advanceSignup(ctx, userID)
}

func (e *Engine) askApart(ctx context.Context, userID int64) error {
	draft, ok := e.signDrafts.Get(userID)
	if !ok || draft.Floor == nil {
		return nil
	}
	aparts, err := e.houses.Apartments(draft.HouseID, models.ClampInt8(*draft.Floor))
	if err != nil {
		slog.Error("Engine.askApart house lookup failed", "error", err, "houseID", draft.HouseID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.house_not_found"))
	}
	rows := make([][]models.Button, 0, len(aparts))
	for _, apart := range aparts {
		rows = append(rows, models.ButtonRow(
			e.texts.Getf("button.apart", apart),
			callback.EncodeInt(patternApart, queryApart, int64(apart)),
		))
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("sign.ask_apart"), rows)
}

func (e *Engine) handleApartChosen(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	userID := cq.From.ID
	if e.signState(userID) != SignWaitApart {
		slog.Debug("Engine.handleApartChosen ignored, not awaiting apartment", "userID", userID)
		return nil
	}
	apart, ok := payload.Int(queryApart)
	if !ok {
		return errors.New("apartment payload missing number")
	}
	draft, hasDraft := e.signDrafts.Get(userID)
	if !hasDraft {
		e.signStates.Remove(userID)
		return nil
	}
	n := int(models.ClampInt16(int(apart)))
	draft.Apart = &n
	e.signDrafts.Set(userID, draft)
	e.signStates.Set(userID, NextSignupState(SignWaitApart, SignEventApartChosen))
	return e.advanceSignup(ctx, userID)
}

func (e *Engine) finishSignup(ctx context.Context, userID int64, approved bool) error {
	if !approved {
		e.signStates.Set(userID, NextSignupState(SignWaitApprove, SignEventApproveNo))
		return e.advanceSignup(ctx, userID)
	}

	draft, ok := e.signDrafts.Get(userID)
	if !ok {
		e.signStates.Remove(userID)
		return nil
	}
	r, err := draft.Build()
	if err != nil {
		e.concludeSignup(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.try_again"))
	}
	r.CreatedAt = e.now()
	r.UpdatedAt = r.CreatedAt

	// Insert-or-update keyed by the user id: re-signing rewrites the record.
	err = e.store.CreateResident(r)
	if errors.Is(err, models.ErrAlreadyExists) {
		err = e.store.UpdateResident(r)
	}
	if err != nil {
		slog.Error("Resident persist failed", "error", err, "residentID", r.ID)
		e.concludeSignup(userID)
		return e.service.SendMessage(ctx, userID, e.texts.Get("error.cant_save"))
	}

	house, err := e.store.FindHouse(r.HouseID)
	name := house.Name
	if err != nil {
		name = ""
	}
	slog.Info("Resident signed up", "residentID", r.ID, "houseID", r.HouseID)
	e.concludeSignup(userID)
	return e.service.SendMessage(ctx, userID, e.texts.Getf("sign.saved", name))
}

func (e *Engine) concludeSignup(userID int64) {
	e.signStates.Remove(userID)
	e.signDrafts.Remove(userID)
}
