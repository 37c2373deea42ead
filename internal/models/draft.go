// This file defines the draft (staging) projections of the registry
// entities. A draft holds only the fields collected so far; nil means "not
// yet answered". Build converts a draft into a final entity and fails with
// ErrCantBuild while any mandatory field is missing.
package models

import (
	"fmt"
	"strings"
)

// DraftHouse is a partially collected house registration.
type DraftHouse struct {
	ID            int64
	Name          string
	FirstFloor    *int
	LastFloor     *int
	ApartPerFloor *int
	FirstApart    *int
}

// Build assembles the final House. It is pure: calling it twice on the same
// draft yields equal values. Out-of-range answers are clamped to the field
// maximum.
func (d DraftHouse) Build() (House, error) {
	if d.Name == "" || d.FirstFloor == nil || d.LastFloor == nil || d.ApartPerFloor == nil || d.FirstApart == nil {
		return House{}, ErrCantBuild
	}
	return House{
		ID:            d.ID,
		Name:          d.Name,
		FirstFloor:    ClampInt8(*d.FirstFloor),
		LastFloor:     ClampInt8(*d.LastFloor),
		ApartPerFloor: ClampInt8(*d.ApartPerFloor),
		FirstApart:    ClampInt16(*d.FirstApart),
	}, nil
}

// Describe renders the fields collected so far for the confirmation step.
func (d DraftHouse) Describe() string {
	var b strings.Builder
	if d.Name != "" {
		fmt.Fprintf(&b, "Название чата - %s\n", d.Name)
	}
	if d.FirstFloor != nil {
		fmt.Fprintf(&b, "Первый жилой этаж - %d\n", *d.FirstFloor)
	}
	if d.LastFloor != nil {
		fmt.Fprintf(&b, "Последний жилой этаж - %d\n", *d.LastFloor)
	}
	if d.ApartPerFloor != nil {
		fmt.Fprintf(&b, "Квартир на этаж - %d\n", *d.ApartPerFloor)
	}
	if d.FirstApart != nil {
		fmt.Fprintf(&b, "Отсчет квартир от - %d\n", *d.FirstApart)
	}
	return b.String()
}

// DraftResident is a partially collected journal sign-up.
type DraftResident struct {
	ID       int64
	Name     string
	Username string
	HouseID  int64
	Floor    *int
	Apart    *int
}

// Build assembles the final Resident, requiring floor and apartment.
func (d DraftResident) Build() (Resident, error) {
	if d.Floor == nil || d.Apart == nil {
		return Resident{}, ErrCantBuild
	}
	return Resident{
		ID:       d.ID,
		Name:     d.Name,
		Username: d.Username,
		Apart:    ClampInt16(*d.Apart),
		Floor:    ClampInt8(*d.Floor),
		HouseID:  d.HouseID,
	}, nil
}

// Describe renders the fields collected so far for the confirmation step.
func (d DraftResident) Describe() string {
	var b strings.Builder
	if d.Floor != nil {
		fmt.Fprintf(&b, "Вы проживаете на %d этаже", *d.Floor)
	}
	if d.Apart != nil {
		fmt.Fprintf(&b, " в %d квартире.\n", *d.Apart)
	}
	return b.String()
}

// DraftVehicle is a partially collected vehicle registration.
type DraftVehicle struct {
	ResidentID int64
	HouseID    int64
	Plate      *string
	Model      *string
}

// Build assembles the final Vehicle, requiring plate and model. The caller
// assigns the record id.
func (d DraftVehicle) Build() (Vehicle, error) {
	if d.Plate == nil || d.Model == nil {
		return Vehicle{}, ErrCantBuild
	}
	return Vehicle{
		Plate:      NormalizePlate(*d.Plate),
		Model:      *d.Model,
		ResidentID: d.ResidentID,
		HouseID:    d.HouseID,
	}, nil
}
