// This file implements the in-memory store used by tests and as a fallback
// when no database DSN is configured.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// InMemoryStore keeps all records in process memory behind one mutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	houses   map[int64]models.House
	resident map[int64]models.Resident
	vehicles map[string]models.Vehicle
	blocked  map[string]models.BlockedVehicle
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		houses:   make(map[int64]models.House),
		resident: make(map[int64]models.Resident),
		vehicles: make(map[string]models.Vehicle),
		blocked:  make(map[string]models.BlockedVehicle),
	}
}

func (s *InMemoryStore) FindHouse(id int64) (models.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.houses[id]
	if !ok {
		return models.House{}, models.ErrNotFound
	}
	return h, nil
}

func (s *InMemoryStore) CreateHouse(h models.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.houses[h.ID]; ok {
		return models.ErrAlreadyExists
	}
	now := time.Now()
	h.CreatedAt = now
	h.UpdatedAt = now
	s.houses[h.ID] = h
	return nil
}

func (s *InMemoryStore) UpdateHouse(h models.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.houses[h.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.FirstFloor = h.FirstFloor
	existing.LastFloor = h.LastFloor
	existing.ApartPerFloor = h.ApartPerFloor
	existing.FirstApart = h.FirstApart
	existing.UpdatedAt = time.Now()
	s.houses[h.ID] = existing
	return nil
}

func (s *InMemoryStore) FindResident(id int64) (models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resident[id]
	if !ok {
		return models.Resident{}, models.ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) CreateResident(r models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resident[r.ID]; ok {
		return models.ErrAlreadyExists
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.resident[r.ID] = r
	return nil
}

func (s *InMemoryStore) UpdateResident(r models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.resident[r.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.Name = r.Name
	existing.Username = r.Username
	existing.Apart = r.Apart
	existing.Floor = r.Floor
	existing.UpdatedAt = time.Now()
	s.resident[r.ID] = existing
	return nil
}

func (s *InMemoryStore) DeleteResident(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resident[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.resident, id)
	return nil
}

func (s *InMemoryStore) QueryResidentsByApart(houseID int64, apart int16) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Resident
	for _, r := range s.resident {
		if r.HouseID == houseID && r.Apart == apart {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, models.ErrEmpty
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) FindVehicleByPlate(plate string) (models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[models.NormalizePlate(plate)]
	if !ok {
		return models.Vehicle{}, models.ErrNotFound
	}
	return v, nil
}

func (s *InMemoryStore) CreateVehicle(v models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plate := models.NormalizePlate(v.Plate)
	if _, ok := s.vehicles[plate]; ok {
		return models.ErrAlreadyExists
	}
	now := time.Now()
	v.Plate = plate
	v.CreatedAt = now
	v.UpdatedAt = now
	s.vehicles[plate] = v
	return nil
}

func (s *InMemoryStore) UpdateVehicle(v models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plate := models.NormalizePlate(v.Plate)
	existing, ok := s.vehicles[plate]
	if !ok {
		return models.ErrNotFound
	}
	existing.Model = v.Model
	existing.ResidentID = v.ResidentID
	existing.HouseID = v.HouseID
	existing.UpdatedAt = time.Now()
	s.vehicles[plate] = existing
	return nil
}

func (s *InMemoryStore) VehiclesByResident(residentID int64) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Vehicle
	for _, v := range s.vehicles {
		if v.ResidentID == residentID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

func (s *InMemoryStore) CreateBlockedVehicle(b models.BlockedVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.blocked[b.ID] = b
	return nil
}

func (s *InMemoryStore) QueryBlockedVehicles(houseID int64, createdAfter time.Time) ([]models.BlockedVehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BlockedVehicle
	for _, b := range s.blocked {
		if b.HouseID == houseID && b.CreatedAt.After(createdAfter) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteBlockedVehiclesBefore(cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.blocked {
		if !b.CreatedAt.After(cutoff) {
			delete(s.blocked, id)
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
