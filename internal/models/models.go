// Package models defines the core data structures for the concierge bot.
//
// It includes the registry entities (houses, residents, vehicles), the chat
// update types shared between the transport and the dialog engine, and the
// validation rules that several workflows depend on.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation constants shared by the workflows.
const (
	// MinPlateLength is the minimum accepted car plate length in runes.
	MinPlateLength = 7
	// MaxPlateLength is the maximum accepted car plate length in runes.
	MaxPlateLength = 9
	// MaxVehicleModelLength bounds the free-text vehicle model answer.
	MaxVehicleModelLength = 16
	// MinApartNumber is the smallest valid apartment number.
	MinApartNumber = 1
	// MaxApartNumber is the largest valid apartment number.
	MaxApartNumber = 5000
)

// plateAlphabet holds the characters allowed in a car plate: digits plus the
// Cyrillic letters that appear on Russian registration plates.
const plateAlphabet = "0123456789авекмнорстух"

// IsPlateNumber reports whether s is a well-formed car plate. The check is
// case-insensitive; use NormalizePlate before storing or comparing.
func IsPlateNumber(s string) bool {
	normalized := NormalizePlate(s)
	length := utf8.RuneCountInString(normalized)
	if length < MinPlateLength || length > MaxPlateLength {
		return false
	}
	for _, r := range normalized {
		if !strings.ContainsRune(plateAlphabet, r) {
			return false
		}
	}
	return true
}

// NormalizePlate lowercases a plate for storage and comparison.
func NormalizePlate(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsApartNumber reports whether n is a valid apartment number.
func IsApartNumber(n int) bool {
	return n >= MinApartNumber && n <= MaxApartNumber
}

// ClampInt8 clamps n to the int8 range. Out-of-range callback parameters are
// clamped to the field maximum rather than rejected.
func ClampInt8(n int) int8 {
	if n > math.MaxInt8 {
		return math.MaxInt8
	}
	if n < math.MinInt8 {
		return math.MinInt8
	}
	return int8(n)
}

// ClampInt16 clamps n to the int16 range.
func ClampInt16(n int) int16 {
	if n > math.MaxInt16 {
		return math.MaxInt16
	}
	if n < math.MinInt16 {
		return math.MinInt16
	}
	return int16(n)
}

// House is a registered house chat: the chat id doubles as the house id.
type House struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FirstFloor    int8      `json:"first_floor"`
	LastFloor     int8      `json:"last_floor"`
	ApartPerFloor int8      `json:"apart_per_floor"`
	FirstApart    int16     `json:"first_apart"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Describe renders the house configuration for confirmation messages.
func (h House) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Название чата - %s\n", h.Name)
	fmt.Fprintf(&b, "Первый жилой этаж - %d\n", h.FirstFloor)
	fmt.Fprintf(&b, "Последний жилой этаж - %d\n", h.LastFloor)
	fmt.Fprintf(&b, "Квартир на этаж - %d\n", h.ApartPerFloor)
	fmt.Fprintf(&b, "Отсчет квартир от - %d\n", h.FirstApart)
	return b.String()
}

// Resident is a journal record for one chat user. The user id is the key.
type Resident struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username,omitempty"`
	Apart     int16     `json:"apart"`
	Floor     int8      `json:"floor"`
	HouseID   int64     `json:"house_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Describe renders the resident record for confirmation messages.
func (r Resident) Describe() string {
	return fmt.Sprintf("Вы проживаете на %d этаже в %d квартире.\n", r.Floor, r.Apart)
}

// Mention renders a resident as a name with an optional @username handle.
func (r Resident) Mention() string {
	if r.Username == "" {
		return r.Name
	}
	return r.Name + " @" + r.Username
}

// Vehicle is a resident's car, keyed by normalized plate.
type Vehicle struct {
	ID         string    `json:"id"`
	Plate      string    `json:"plate"`
	Model      string    `json:"model,omitempty"`
	ResidentID int64     `json:"resident_id"`
	HouseID    int64     `json:"house_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Describe renders the vehicle for journal messages. Plates are stored
// lowercase and shown uppercase.
func (v Vehicle) Describe() string {
	var b strings.Builder
	b.WriteString("Автомобиль 🚘 ")
	if v.Model != "" {
		b.WriteString("модели " + v.Model)
	}
	b.WriteString(" с номером " + strings.ToUpper(v.Plate))
	return b.String()
}

// BlockedVehicle is a parking-lock record: a resident reports a car that is
// boxed in on the lot. Records expire 12 hours after creation.
type BlockedVehicle struct {
	ID        string    `json:"id"`
	DriverID  int64     `json:"driver_id"`
	Plate     string    `json:"plate"`
	HouseID   int64     `json:"house_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the chat transport's view of a message author.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// ChatType distinguishes private conversations from group chats.
type ChatType string

const (
	// ChatTypePrivate is a one-on-one conversation with the bot.
	ChatTypePrivate ChatType = "private"
	// ChatTypeGroup is a house group chat.
	ChatTypeGroup ChatType = "group"
)

// Chat identifies the conversation an update arrived in.
type Chat struct {
	ID    int64    `json:"id"`
	Type  ChatType `json:"type"`
	Title string   `json:"title,omitempty"`
}

// Message is an inbound text message.
type Message struct {
	From User   `json:"from"`
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
	Time int64  `json:"time"`
}

// CallbackQuery is an inbound button press carrying an encoded payload.
type CallbackQuery struct {
	ID   string `json:"id"`
	From User   `json:"from"`
	Chat Chat   `json:"chat"`
	Data string `json:"data"`
}

// Update is one inbound transport event: exactly one field is non-nil.
type Update struct {
	Message  *Message       `json:"message,omitempty"`
	Callback *CallbackQuery `json:"callback,omitempty"`
}

// UserID returns the id of the user the update originated from, or 0 when the
// update carries neither a message nor a callback.
func (u Update) UserID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.From.ID
	case u.Callback != nil:
		return u.Callback.From.ID
	default:
		return 0
	}
}

// Button is one inline keyboard button with an encoded callback payload.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// ButtonRow builds a one-button keyboard row; the menus stack one button per
// row the way the original chat UI does.
func ButtonRow(text, data string) []Button {
	return []Button{{Text: text, Data: data}}
}
