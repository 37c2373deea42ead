// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	slog.Debug("SQLite database opened")

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) FindHouse(id int64) (models.House, error) {
	var h models.House
	err := s.db.QueryRow(
		`SELECT id, name, first_floor, last_floor, apart_per_floor, first_apart, created_at, updated_at FROM houses WHERE id = ?`,
		id,
	).Scan(&h.ID, &h.Name, &h.FirstFloor, &h.LastFloor, &h.ApartPerFloor, &h.FirstApart, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.House{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore FindHouse failed", "error", err, "houseID", id)
		return models.House{}, models.NewStorageError("find house", err)
	}
	slog.Debug("SQLiteStore FindHouse succeeded", "houseID", id)
	return h, nil
}

func (s *SQLiteStore) CreateHouse(h models.House) error {
	if _, err := s.FindHouse(h.ID); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO houses (id, name, first_floor, last_floor, apart_per_floor, first_apart, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.FirstFloor, h.LastFloor, h.ApartPerFloor, h.FirstApart, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateHouse failed", "error", err, "houseID", h.ID)
		return models.NewStorageError("create house", err)
	}
	slog.Debug("SQLiteStore CreateHouse succeeded", "houseID", h.ID)
	return nil
}

func (s *SQLiteStore) UpdateHouse(h models.House) error {
	res, err := s.db.Exec(
		`UPDATE houses SET name = ?, first_floor = ?, last_floor = ?, apart_per_floor = ?, first_apart = ?, updated_at = ? WHERE id = ?`,
		h.Name, h.FirstFloor, h.LastFloor, h.ApartPerFloor, h.FirstApart, time.Now(), h.ID,
	)
	if err != nil {
		slog.Error("SQLiteStore UpdateHouse failed", "error", err, "houseID", h.ID)
		return models.NewStorageError("update house", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("SQLiteStore UpdateHouse succeeded", "houseID", h.ID)
	return nil
}

func (s *SQLiteStore) FindResident(id int64) (models.Resident, error) {
	var r models.Resident
	err := s.db.QueryRow(
		`SELECT id, name, username, apart, floor, house_id, created_at, updated_at FROM residents WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Name, &r.Username, &r.Apart, &r.Floor, &r.HouseID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resident{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore FindResident failed", "error", err, "residentID", id)
		return models.Resident{}, models.NewStorageError("find resident", err)
	}
	slog.Debug("SQLiteStore FindResident succeeded", "residentID", id)
	return r, nil
}

func (s *SQLiteStore) CreateResident(r models.Resident) error {
	if _, err := s.FindResident(r.ID); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO residents (id, name, username, apart, floor, house_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Username, r.Apart, r.Floor, r.HouseID, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateResident failed", "error", err, "residentID", r.ID)
		return models.NewStorageError("create resident", err)
	}
	slog.Debug("SQLiteStore CreateResident succeeded", "residentID", r.ID, "houseID", r.HouseID)
	return nil
}

func (s *SQLiteStore) UpdateResident(r models.Resident) error {
	res, err := s.db.Exec(
		`UPDATE residents SET name = ?, username = ?, apart = ?, floor = ?, house_id = ?, updated_at = ? WHERE id = ?`,
		r.Name, r.Username, r.Apart, r.Floor, r.HouseID, time.Now(), r.ID,
	)
	if err != nil {
		slog.Error("SQLiteStore UpdateResident failed", "error", err, "residentID", r.ID)
		return models.NewStorageError("update resident", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("SQLiteStore UpdateResident succeeded", "residentID", r.ID)
	return nil
}

func (s *SQLiteStore) DeleteResident(id int64) error {
	res, err := s.db.Exec(`DELETE FROM residents WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore DeleteResident failed", "error", err, "residentID", id)
		return models.NewStorageError("delete resident", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("SQLiteStore DeleteResident succeeded", "residentID", id)
	return nil
}

func (s *SQLiteStore) QueryResidentsByApart(houseID int64, apart int16) ([]models.Resident, error) {
	rows, err := s.db.Query(
		`SELECT id, name, username, apart, floor, house_id, created_at, updated_at FROM residents WHERE house_id = ? AND apart = ? ORDER BY name`,
		houseID, apart,
	)
	if err != nil {
		slog.Error("SQLiteStore QueryResidentsByApart query failed", "error", err, "houseID", houseID, "apart", apart)
		return nil, models.NewStorageError("query residents", err)
	}
	defer rows.Close()

	var residents []models.Resident
	for rows.Next() {
		var r models.Resident
		if err := rows.Scan(&r.ID, &r.Name, &r.Username, &r.Apart, &r.Floor, &r.HouseID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			slog.Error("SQLiteStore QueryResidentsByApart scan failed", "error", err)
			return nil, models.NewStorageError("scan resident row", err)
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore QueryResidentsByApart rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate resident rows", err)
	}
	if len(residents) == 0 {
		return nil, models.ErrEmpty
	}
	slog.Debug("SQLiteStore QueryResidentsByApart succeeded", "houseID", houseID, "apart", apart, "count", len(residents))
	return residents, nil
}

func (s *SQLiteStore) FindVehicleByPlate(plate string) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.db.QueryRow(
		`SELECT id, plate, model, resident_id, house_id, created_at, updated_at FROM vehicles WHERE plate = ?`,
		models.NormalizePlate(plate),
	).Scan(&v.ID, &v.Plate, &v.Model, &v.ResidentID, &v.HouseID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore FindVehicleByPlate failed", "error", err)
		return models.Vehicle{}, models.NewStorageError("find vehicle", err)
	}
	slog.Debug("SQLiteStore FindVehicleByPlate succeeded", "vehicleID", v.ID)
	return v, nil
}

func (s *SQLiteStore) CreateVehicle(v models.Vehicle) error {
	if _, err := s.FindVehicleByPlate(v.Plate); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO vehicles (id, plate, model, resident_id, house_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, models.NormalizePlate(v.Plate), v.Model, v.ResidentID, v.HouseID, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateVehicle failed", "error", err, "vehicleID", v.ID)
		return models.NewStorageError("create vehicle", err)
	}
	slog.Debug("SQLiteStore CreateVehicle succeeded", "vehicleID", v.ID, "residentID", v.ResidentID)
	return nil
}

func (s *SQLiteStore) UpdateVehicle(v models.Vehicle) error {
	res, err := s.db.Exec(
		`UPDATE vehicles SET model = ?, resident_id = ?, house_id = ?, updated_at = ? WHERE plate = ?`,
		v.Model, v.ResidentID, v.HouseID, time.Now(), models.NormalizePlate(v.Plate),
	)
	if err != nil {
		slog.Error("SQLiteStore UpdateVehicle failed", "error", err, "vehicleID", v.ID)
		return models.NewStorageError("update vehicle", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("SQLiteStore UpdateVehicle succeeded", "vehicleID", v.ID)
	return nil
}

func (s *SQLiteStore) VehiclesByResident(residentID int64) ([]models.Vehicle, error) {
	rows, err := s.db.Query(
		`SELECT id, plate, model, resident_id, house_id, created_at, updated_at FROM vehicles WHERE resident_id = ? ORDER BY created_at`,
		residentID,
	)
	if err != nil {
		slog.Error("SQLiteStore VehiclesByResident query failed", "error", err, "residentID", residentID)
		return nil, models.NewStorageError("query vehicles", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &v.ResidentID, &v.HouseID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			slog.Error("SQLiteStore VehiclesByResident scan failed", "error", err)
			return nil, models.NewStorageError("scan vehicle row", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore VehiclesByResident rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate vehicle rows", err)
	}
	slog.Debug("SQLiteStore VehiclesByResident succeeded", "residentID", residentID, "count", len(vehicles))
	return vehicles, nil
}

func (s *SQLiteStore) CreateBlockedVehicle(b models.BlockedVehicle) error {
	_, err := s.db.Exec(
		`INSERT INTO blocked_vehicles (id, driver_id, plate, house_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.DriverID, models.NormalizePlate(b.Plate), b.HouseID, b.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateBlockedVehicle failed", "error", err, "recordID", b.ID)
		return models.NewStorageError("create blocked vehicle", err)
	}
	slog.Debug("SQLiteStore CreateBlockedVehicle succeeded", "recordID", b.ID, "houseID", b.HouseID)
	return nil
}

func (s *SQLiteStore) QueryBlockedVehicles(houseID int64, createdAfter time.Time) ([]models.BlockedVehicle, error) {
	rows, err := s.db.Query(
		`SELECT id, driver_id, plate, house_id, created_at FROM blocked_vehicles WHERE house_id = ? AND created_at > ? ORDER BY created_at`,
		houseID, createdAfter,
	)
	if err != nil {
		slog.Error("SQLiteStore QueryBlockedVehicles query failed", "error", err, "houseID", houseID)
		return nil, models.NewStorageError("query blocked vehicles", err)
	}
	defer rows.Close()

	var blocked []models.BlockedVehicle
	for rows.Next() {
		var b models.BlockedVehicle
		if err := rows.Scan(&b.ID, &b.DriverID, &b.Plate, &b.HouseID, &b.CreatedAt); err != nil {
			slog.Error("SQLiteStore QueryBlockedVehicles scan failed", "error", err)
			return nil, models.NewStorageError("scan blocked vehicle row", err)
		}
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore QueryBlockedVehicles rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate blocked vehicle rows", err)
	}
	slog.Debug("SQLiteStore QueryBlockedVehicles succeeded", "houseID", houseID, "count", len(blocked))
	return blocked, nil
}

func (s *SQLiteStore) DeleteBlockedVehiclesBefore(cutoff time.Time) error {
	res, err := s.db.Exec(`DELETE FROM blocked_vehicles WHERE created_at <= ?`, cutoff)
	if err != nil {
		slog.Error("SQLiteStore DeleteBlockedVehiclesBefore failed", "error", err)
		return models.NewStorageError("delete blocked vehicles", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("SQLiteStore DeleteBlockedVehiclesBefore succeeded", "deleted", n)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLiteStore database connection")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
