package house

import (
	"errors"
	"math"
	"testing"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

func testHouse() models.House {
	return models.House{
		ID:            -100200300,
		Name:          "Дом 1",
		FirstFloor:    1,
		LastFloor:     9,
		ApartPerFloor: 4,
		FirstApart:    1,
	}
}

func TestFloorsOf(t *testing.T) {
	h := testHouse()

	desc := FloorsOf(h, Descending)
	if len(desc) != 9 {
		t.Fatalf("descending floor count = %d, want 9", len(desc))
	}
	if desc[0] != 9 || desc[8] != 1 {
		t.Errorf("descending floors = %v, want 9 first and 1 last", desc)
	}

	asc := FloorsOf(h, Ascending)
	if asc[0] != 1 || asc[8] != 9 {
		t.Errorf("ascending floors = %v, want 1 first and 9 last", asc)
	}

	h.FirstFloor = 5
	h.LastFloor = 3
	if got := FloorsOf(h, Descending); got != nil {
		t.Errorf("inverted floor range produced %v, want nil", got)
	}
}

func TestFloorsOfSingleFloor(t *testing.T) {
	h := testHouse()
	h.FirstFloor = 2
	h.LastFloor = 2
	got := FloorsOf(h, Descending)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("single floor house floors = %v, want [2]", got)
	}
}

func TestApartmentsOf(t *testing.T) {
	h := testHouse()

	cases := []struct {
		floor int8
		first int16
		last  int16
	}{
		{1, 1, 4},
		{2, 5, 8},
		{9, 33, 36},
	}
	for _, tc := range cases {
		got := ApartmentsOf(h, tc.floor)
		if len(got) != 4 {
			t.Fatalf("floor %d apartment count = %d, want 4", tc.floor, len(got))
		}
		if got[0] != tc.first || got[3] != tc.last {
			t.Errorf("floor %d apartments = %v, want %d..%d", tc.floor, got, tc.first, tc.last)
		}
	}

	if got := ApartmentsOf(h, 0); got != nil {
		t.Errorf("floor below the house produced %v, want nil", got)
	}
	if got := ApartmentsOf(h, 10); got != nil {
		t.Errorf("floor above the house produced %v, want nil", got)
	}
}

func TestApartmentsOfFirstApartOffset(t *testing.T) {
	h := testHouse()
	h.FirstApart = 13
	got := ApartmentsOf(h, 2)
	if got[0] != 17 || got[3] != 20 {
		t.Errorf("apartments with offset start = %v, want 17..20", got)
	}
}

func TestApartmentsOfStopsAtNumberingLimit(t *testing.T) {
	h := testHouse()
	h.FirstApart = math.MaxInt16 - 1
	h.LastFloor = 2

	got := ApartmentsOf(h, 1)
	if len(got) != 2 || got[0] != math.MaxInt16-1 || got[1] != math.MaxInt16 {
		t.Errorf("apartments at the numbering limit = %v, want the last two int16 values", got)
	}
	for _, a := range got {
		if a < 0 {
			t.Fatalf("apartment number wrapped negative: %v", got)
		}
	}

	if got := ApartmentsOf(h, 2); len(got) != 0 {
		t.Errorf("floor past the numbering limit produced %v, want none", got)
	}
}

// Every apartment the house produces must map back to the floor that
// produced it.
func TestFloorOfApartRoundTrip(t *testing.T) {
	h := testHouse()
	for _, floor := range FloorsOf(h, Ascending) {
		for _, apart := range ApartmentsOf(h, floor) {
			got, ok := FloorOfApart(h, apart)
			if !ok || got != floor {
				t.Fatalf("FloorOfApart(%d) = %d, %v; want %d, true", apart, got, ok, floor)
			}
		}
	}
}

func TestFloorOfApartOutOfHouse(t *testing.T) {
	h := testHouse()
	if _, ok := FloorOfApart(h, 0); ok {
		t.Error("apartment below the house resolved to a floor")
	}
	if _, ok := FloorOfApart(h, 37); ok {
		t.Error("apartment above the house resolved to a floor")
	}
	h.ApartPerFloor = 0
	if _, ok := FloorOfApart(h, 1); ok {
		t.Error("house without apartments resolved a floor")
	}
}

type fakeLookup struct {
	house models.House
	err   error
}

func (f fakeLookup) FindHouse(id int64) (models.House, error) {
	if f.err != nil {
		return models.House{}, f.err
	}
	return f.house, nil
}

func TestManagerFloors(t *testing.T) {
	m := NewManager(fakeLookup{house: testHouse()})
	floors, err := m.Floors(-100200300)
	if err != nil {
		t.Fatalf("Floors failed: %v", err)
	}
	if floors[0] != 9 {
		t.Errorf("Floors returned %v, want top floor first", floors)
	}

	m = NewManager(fakeLookup{err: models.ErrNotFound})
	if _, err := m.Floors(-1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Floors error = %v, want ErrNotFound", err)
	}
}

func TestManagerApartments(t *testing.T) {
	m := NewManager(fakeLookup{house: testHouse()})
	aparts, err := m.Apartments(-100200300, 3)
	if err != nil {
		t.Fatalf("Apartments failed: %v", err)
	}
	if aparts[0] != 9 || aparts[3] != 12 {
		t.Errorf("Apartments(floor 3) = %v, want 9..12", aparts)
	}
}
