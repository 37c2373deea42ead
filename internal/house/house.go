// Package house computes floor and apartment numbering for a building.
//
// A house is described by its first and last floor, the apartment count per
// floor and the number of the first apartment. Floors number apartments
// contiguously from the bottom up, so the first apartment on a floor is
// apartPerFloor*(floor-firstFloor)+firstApart.
package house

import (
	"log/slog"
	"math"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Order controls how floor lists are produced. Keyboards show the top floor
// first, so Descending is the default used by dialogs.
type Order int

const (
	Descending Order = iota
	Ascending
)

// FloorsOf returns every floor number of the house in the given order.
func FloorsOf(h models.House, order Order) []int8 {
	if h.LastFloor < h.FirstFloor {
		return nil
	}
	count := int(h.LastFloor) - int(h.FirstFloor) + 1
	floors := make([]int8, 0, count)
	switch order {
	case Ascending:
		for f := h.FirstFloor; ; f++ {
			floors = append(floors, f)
			if f == h.LastFloor {
				break
			}
		}
	default:
		for f := h.LastFloor; ; f-- {
			floors = append(floors, f)
			if f == h.FirstFloor {
				break
			}
		}
	}
	return floors
}

// ApartmentsOf returns the apartment numbers on one floor of the house, in
// ascending order. An empty slice is returned for a floor outside the house.
// Numbering stops at the int16 range; apartments past it are dropped rather
// than wrapped.
func ApartmentsOf(h models.House, floor int8) []int16 {
	if floor < h.FirstFloor || floor > h.LastFloor || h.ApartPerFloor <= 0 {
		return nil
	}
	first := int(h.ApartPerFloor)*(int(floor)-int(h.FirstFloor)) + int(h.FirstApart)
	aparts := make([]int16, 0, h.ApartPerFloor)
	for i := 0; i < int(h.ApartPerFloor); i++ {
		n := first + i
		if n > math.MaxInt16 {
			break
		}
		aparts = append(aparts, int16(n))
	}
	return aparts
}

// FloorOfApart returns the floor an apartment number belongs to, or false
// when the number falls outside the house.
func FloorOfApart(h models.House, apart int16) (int8, bool) {
	if h.ApartPerFloor <= 0 || apart < h.FirstApart {
		return 0, false
	}
	offset := (int(apart) - int(h.FirstApart)) / int(h.ApartPerFloor)
	floor := int(h.FirstFloor) + offset
	if floor > int(h.LastFloor) {
		return 0, false
	}
	return int8(floor), true
}

// Manager answers numbering queries for houses held in a store.
type Manager struct {
	store Lookup
}

// Lookup is the slice of the store the manager needs.
type Lookup interface {
	FindHouse(id int64) (models.House, error)
}

// NewManager creates a manager over the given house lookup.
func NewManager(store Lookup) *Manager {
	return &Manager{store: store}
}

// Floors returns the floors of the registered house, top floor first.
func (m *Manager) Floors(houseID int64) ([]int8, error) {
	h, err := m.store.FindHouse(houseID)
	if err != nil {
		slog.Debug("Manager.Floors: house lookup failed", "error", err, "houseID", houseID)
		return nil, err
	}
	return FloorsOf(h, Descending), nil
}

// Apartments returns the apartment numbers on one floor of the registered
// house.
func (m *Manager) Apartments(houseID int64, floor int8) ([]int16, error) {
	h, err := m.store.FindHouse(houseID)
	if err != nil {
		slog.Debug("Manager.Apartments: house lookup failed", "error", err, "houseID", houseID)
		return nil, err
	}
	return ApartmentsOf(h, floor), nil
}
