package models

import (
	"errors"
	"math"
	"testing"
)

func TestIsPlateNumber(t *testing.T) {
	cases := []struct {
		name  string
		plate string
		want  bool
	}{
		{"valid lowercase", "а123ве78", true},
		{"valid uppercase", "А123ВЕ78", true},
		{"valid with spaces around", " а123ве78 ", true},
		{"valid nine chars", "а123ве178", true},
		{"valid seven chars", "а123ве7", true},
		{"too short", "а123ве", false},
		{"too long", "а123ве1789", false},
		{"latin letters", "a123be78", false},
		{"forbidden cyrillic letter", "ж123ве78", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPlateNumber(tc.plate); got != tc.want {
				t.Errorf("IsPlateNumber(%q) = %v, want %v", tc.plate, got, tc.want)
			}
		})
	}
}

func TestNormalizePlate(t *testing.T) {
	if got := NormalizePlate(" А123ВЕ78 "); got != "а123ве78" {
		t.Errorf("NormalizePlate = %q, want %q", got, "а123ве78")
	}
}

func TestIsApartNumber(t *testing.T) {
	cases := []struct {
		n    int
		want bool
	}{
		{0, false},
		{1, true},
		{5000, true},
		{5001, false},
		{-3, false},
	}
	for _, tc := range cases {
		if got := IsApartNumber(tc.n); got != tc.want {
			t.Errorf("IsApartNumber(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestClamping(t *testing.T) {
	if got := ClampInt8(1000); got != math.MaxInt8 {
		t.Errorf("ClampInt8(1000) = %d, want %d", got, math.MaxInt8)
	}
	if got := ClampInt8(-1000); got != math.MinInt8 {
		t.Errorf("ClampInt8(-1000) = %d, want %d", got, math.MinInt8)
	}
	if got := ClampInt16(100000); got != math.MaxInt16 {
		t.Errorf("ClampInt16(100000) = %d, want %d", got, math.MaxInt16)
	}
	if got := ClampInt16(42); got != 42 {
		t.Errorf("ClampInt16(42) = %d, want 42", got)
	}
}

func TestDraftHouseBuild(t *testing.T) {
	first, last, per, apart := 1, 9, 4, 1
	draft := DraftHouse{ID: 10, Name: "Дом 1"}

	if _, err := draft.Build(); !errors.Is(err, ErrCantBuild) {
		t.Fatalf("incomplete draft Build error = %v, want ErrCantBuild", err)
	}

	draft.FirstFloor = &first
	draft.LastFloor = &last
	draft.ApartPerFloor = &per
	draft.FirstApart = &apart

	h1, err := draft.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h2, err := draft.Build()
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Build is not idempotent: %+v vs %+v", h1, h2)
	}
	if h1.FirstFloor != 1 || h1.LastFloor != 9 || h1.ApartPerFloor != 4 || h1.FirstApart != 1 {
		t.Errorf("Build produced wrong fields: %+v", h1)
	}
}

func TestDraftHouseBuildClampsOutOfRange(t *testing.T) {
	first, last, per, apart := 1, 100000, 4, 1
	draft := DraftHouse{ID: 10, Name: "Дом 1", FirstFloor: &first, LastFloor: &last, ApartPerFloor: &per, FirstApart: &apart}
	h, err := draft.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if h.LastFloor != math.MaxInt8 {
		t.Errorf("LastFloor = %d, want clamped %d", h.LastFloor, math.MaxInt8)
	}
}

func TestDraftResidentBuild(t *testing.T) {
	draft := DraftResident{ID: 7, Name: "Иван", HouseID: 10}
	if _, err := draft.Build(); !errors.Is(err, ErrCantBuild) {
		t.Fatalf("incomplete draft Build error = %v, want ErrCantBuild", err)
	}
	floor, apart := 3, 12
	draft.Floor = &floor
	draft.Apart = &apart
	r, err := draft.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if r.Floor != 3 || r.Apart != 12 || r.HouseID != 10 || r.ID != 7 {
		t.Errorf("Build produced wrong fields: %+v", r)
	}
}

func TestDraftVehicleBuildNormalizesPlate(t *testing.T) {
	plate, model := "А123ВЕ78", "Lada"
	draft := DraftVehicle{ResidentID: 7, HouseID: 10, Plate: &plate, Model: &model}
	v, err := draft.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if v.Plate != "а123ве78" {
		t.Errorf("Plate = %q, want normalized %q", v.Plate, "а123ве78")
	}
}

func TestStorageError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewStorageError("create house", inner)
	if !errors.Is(err, inner) {
		t.Error("StorageError does not unwrap to the inner error")
	}
	if !IsStorageFailure(err) {
		t.Error("IsStorageFailure = false for a StorageError")
	}
	if IsStorageFailure(ErrNotFound) {
		t.Error("IsStorageFailure = true for ErrNotFound")
	}
}

func TestResidentMention(t *testing.T) {
	r := Resident{Name: "Иван", Username: "ivan"}
	if got := r.Mention(); got != "Иван @ivan" {
		t.Errorf("Mention = %q", got)
	}
	r.Username = ""
	if got := r.Mention(); got != "Иван" {
		t.Errorf("Mention without username = %q", got)
	}
}
