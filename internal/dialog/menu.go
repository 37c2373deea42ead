package dialog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	"github.com/DenDmitriev/ConciergeChatBot/internal/texts"
)

// MenuContext is the input of the main-menu decision table.
type MenuContext struct {
	// ChatID is the group chat the command came from; meaningful only when
	// InGroup is true.
	ChatID int64
	// InGroup reports whether the command was issued in a group chat.
	InGroup bool
	// HasHouse reports whether a house is registered for ChatID.
	HasHouse bool
	// IsResident reports whether the user has a journal record.
	IsResident bool
	// IsAdmin reports whether the user administers the group chat.
	IsAdmin bool
}

// MainMenuRows builds the main menu keyboard for a user. The rows follow a
// fixed decision table: group administrators see the admin area (or the
// registration entry while no house exists), residents see their areas, and
// non-residents of a registered house see the sign-up entry. An empty result
// means the bot has nothing to offer the user yet.
func MainMenuRows(mc MenuContext, t *texts.Catalog) [][]models.Button {
	var rows [][]models.Button

	if mc.IsAdmin && mc.InGroup {
		if mc.HasHouse {
			rows = append(rows, models.ButtonRow(
				t.Get("button.admin"),
				callback.EncodeInt(patternAdmin, queryChatID, mc.ChatID),
			))
		} else {
			rows = append(rows, models.ButtonRow(
				t.Get("button.registration"),
				callback.EncodeInt(patternRegistration, queryChatID, mc.ChatID),
			))
		}
	}

	if mc.IsResident {
		rows = append(rows,
			models.ButtonRow(t.Get("button.account"), patternAccount),
			models.ButtonRow(t.Get("button.neighbor"), patternNeighbor),
			models.ButtonRow(t.Get("button.parking"), patternParking),
		)
	} else if mc.InGroup && mc.HasHouse {
		rows = append(rows, models.ButtonRow(
			t.Get("button.sign"),
			callback.EncodeInt(patternSign, queryChatID, mc.ChatID),
		))
	}

	return rows
}

// handleConcierge serves the /concierge command in private and group chats.
func (e *Engine) handleConcierge(ctx context.Context, msg models.Message) error {
	userID := msg.From.ID
	slog.Debug("Engine.handleConcierge invoked", "userID", userID, "chatType", msg.Chat.Type)

	mc := MenuContext{IsResident: e.isResident(userID)}

	if msg.Chat.Type == models.ChatTypeGroup {
		if err := e.service.SendMessage(ctx, msg.Chat.ID, e.texts.Get("menu.answer_in_private")); err != nil {
			return err
		}
		mc.InGroup = true
		mc.ChatID = msg.Chat.ID
		mc.HasHouse = e.hasHouse(msg.Chat.ID)
		mc.IsAdmin = e.isChatAdmin(ctx, msg.Chat.ID, userID)
	}

	return e.sendMainMenu(ctx, userID, mc)
}

// handleUnrecognized re-offers the private menu when a text message matched
// no listener and no command.
func (e *Engine) handleUnrecognized(ctx context.Context, msg models.Message) error {
	slog.Debug("Engine.handleUnrecognized invoked", "userID", msg.From.ID)
	mc := MenuContext{IsResident: e.isResident(msg.From.ID)}
	return e.sendMainMenu(ctx, msg.From.ID, mc)
}

func (e *Engine) sendMainMenu(ctx context.Context, userID int64, mc MenuContext) error {
	rows := MainMenuRows(mc, e.texts)
	if len(rows) == 0 {
		return e.service.SendMessage(ctx, userID, e.texts.Get("menu.empty_user"))
	}
	return e.service.SendButtons(ctx, userID, e.texts.Get("menu.default_question"), rows)
}

func (e *Engine) isResident(userID int64) bool {
	_, err := e.store.FindResident(userID)
	return err == nil
}

func (e *Engine) hasHouse(chatID int64) bool {
	_, err := e.store.FindHouse(chatID)
	return err == nil
}

func (e *Engine) isChatAdmin(ctx context.Context, chatID, userID int64) bool {
	admins, err := e.service.ChatAdministrators(ctx, chatID)
	if err != nil {
		slog.Error("Engine.isChatAdmin lookup failed", "error", err, "chatID", chatID)
		return false
	}
	for _, a := range admins {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// handleAdminArea serves the admin submenu.
func (e *Engine) handleAdminArea(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error {
	chatID, ok := payload.Int(queryChatID)
	if !ok {
		return errors.New("admin payload missing chat id")
	}
	slog.Debug("Engine.handleAdminArea invoked", "userID", cq.From.ID, "chatID", chatID)
	rows := [][]models.Button{
		models.ButtonRow(e.texts.Get("button.edit_house"), callback.EncodeInt(patternEditHouse, queryChatID, chatID)),
	}
	return e.service.SendButtons(ctx, cq.From.ID, e.texts.Get("menu.admin_title"), rows)
}
