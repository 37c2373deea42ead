// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	slog.Debug("Postgres database opened")

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Postgres ping successful")
	// Run migrations to ensure registry tables exist
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindHouse(id int64) (models.House, error) {
	var h models.House
	err := s.db.QueryRow(
		`SELECT id, name, first_floor, last_floor, apart_per_floor, first_apart, created_at, updated_at FROM houses WHERE id = $1`,
		id,
	).Scan(&h.ID, &h.Name, &h.FirstFloor, &h.LastFloor, &h.ApartPerFloor, &h.FirstApart, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.House{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore FindHouse failed", "error", err, "houseID", id)
		return models.House{}, models.NewStorageError("find house", err)
	}
	slog.Debug("PostgresStore FindHouse succeeded", "houseID", id)
	return h, nil
}

func (s *PostgresStore) CreateHouse(h models.House) error {
	if _, err := s.FindHouse(h.ID); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO houses (id, name, first_floor, last_floor, apart_per_floor, first_apart, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.Name, h.FirstFloor, h.LastFloor, h.ApartPerFloor, h.FirstApart, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateHouse failed", "error", err, "houseID", h.ID)
		return models.NewStorageError("create house", err)
	}
	slog.Debug("PostgresStore CreateHouse succeeded", "houseID", h.ID)
	return nil
}

func (s *PostgresStore) UpdateHouse(h models.House) error {
	res, err := s.db.Exec(
		`UPDATE houses SET name = $1, first_floor = $2, last_floor = $3, apart_per_floor = $4, first_apart = $5, updated_at = $6 WHERE id = $7`,
		h.Name, h.FirstFloor, h.LastFloor, h.ApartPerFloor, h.FirstApart, time.Now(), h.ID,
	)
	if err != nil {
		slog.Error("PostgresStore UpdateHouse failed", "error", err, "houseID", h.ID)
		return models.NewStorageError("update house", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("PostgresStore UpdateHouse succeeded", "houseID", h.ID)
	return nil
}

func (s *PostgresStore) FindResident(id int64) (models.Resident, error) {
	var r models.Resident
	err := s.db.QueryRow(
		`SELECT id, name, username, apart, floor, house_id, created_at, updated_at FROM residents WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.Username, &r.Apart, &r.Floor, &r.HouseID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resident{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore FindResident failed", "error", err, "residentID", id)
		return models.Resident{}, models.NewStorageError("find resident", err)
	}
	slog.Debug("PostgresStore FindResident succeeded", "residentID", id)
	return r, nil
}

func (s *PostgresStore) CreateResident(r models.Resident) error {
	if _, err := s.FindResident(r.ID); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO residents (id, name, username, apart, floor, house_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.Name, r.Username, r.Apart, r.Floor, r.HouseID, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateResident failed", "error", err, "residentID", r.ID)
		return models.NewStorageError("create resident", err)
	}
	slog.Debug("PostgresStore CreateResident succeeded", "residentID", r.ID, "houseID", r.HouseID)
	return nil
}

func (s *PostgresStore) UpdateResident(r models.Resident) error {
	res, err := s.db.Exec(
		`UPDATE residents SET name = $1, username = $2, apart = $3, floor = $4, house_id = $5, updated_at = $6 WHERE id = $7`,
		r.Name, r.Username, r.Apart, r.Floor, r.HouseID, time.Now(), r.ID,
	)
	if err != nil {
		slog.Error("PostgresStore UpdateResident failed", "error", err, "residentID", r.ID)
		return models.NewStorageError("update resident", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("PostgresStore UpdateResident succeeded", "residentID", r.ID)
	return nil
}

func (s *PostgresStore) DeleteResident(id int64) error {
	res, err := s.db.Exec(`DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore DeleteResident failed", "error", err, "residentID", id)
		return models.NewStorageError("delete resident", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("PostgresStore DeleteResident succeeded", "residentID", id)
	return nil
}

func (s *PostgresStore) QueryResidentsByApart(houseID int64, apart int16) ([]models.Resident, error) {
	rows, err := s.db.Query(
		`SELECT id, name, username, apart, floor, house_id, created_at, updated_at FROM residents WHERE house_id = $1 AND apart = $2 ORDER BY name`,
		houseID, apart,
	)
	if err != nil {
		slog.Error("PostgresStore QueryResidentsByApart query failed", "error", err, "houseID", houseID, "apart", apart)
		return nil, models.NewStorageError("query residents", err)
	}
	defer rows.Close()

	var residents []models.Resident
	for rows.Next() {
		var r models.Resident
		if err := rows.Scan(&r.ID, &r.Name, &r.Username, &r.Apart, &r.Floor, &r.HouseID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			slog.Error("PostgresStore QueryResidentsByApart scan failed", "error", err)
			return nil, models.NewStorageError("scan resident row", err)
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore QueryResidentsByApart rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate resident rows", err)
	}
	if len(residents) == 0 {
		return nil, models.ErrEmpty
	}
	slog.Debug("PostgresStore QueryResidentsByApart succeeded", "houseID", houseID, "apart", apart, "count", len(residents))
	return residents, nil
}

func (s *PostgresStore) FindVehicleByPlate(plate string) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.db.QueryRow(
		`SELECT id, plate, model, resident_id, house_id, created_at, updated_at FROM vehicles WHERE plate = $1`,
		models.NormalizePlate(plate),
	).Scan(&v.ID, &v.Plate, &v.Model, &v.ResidentID, &v.HouseID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, models.ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore FindVehicleByPlate failed", "error", err)
		return models.Vehicle{}, models.NewStorageError("find vehicle", err)
	}
	slog.Debug("PostgresStore FindVehicleByPlate succeeded", "vehicleID", v.ID)
	return v, nil
}

func (s *PostgresStore) CreateVehicle(v models.Vehicle) error {
	if _, err := s.FindVehicleByPlate(v.Plate); err == nil {
		return models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO vehicles (id, plate, model, resident_id, house_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, models.NormalizePlate(v.Plate), v.Model, v.ResidentID, v.HouseID, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateVehicle failed", "error", err, "vehicleID", v.ID)
		return models.NewStorageError("create vehicle", err)
	}
	slog.Debug("PostgresStore CreateVehicle succeeded", "vehicleID", v.ID, "residentID", v.ResidentID)
	return nil
}

func (s *PostgresStore) UpdateVehicle(v models.Vehicle) error {
	res, err := s.db.Exec(
		`UPDATE vehicles SET model = $1, resident_id = $2, house_id = $3, updated_at = $4 WHERE plate = $5`,
		v.Model, v.ResidentID, v.HouseID, time.Now(), models.NormalizePlate(v.Plate),
	)
	if err != nil {
		slog.Error("PostgresStore UpdateVehicle failed", "error", err, "vehicleID", v.ID)
		return models.NewStorageError("update vehicle", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	slog.Debug("PostgresStore UpdateVehicle succeeded", "vehicleID", v.ID)
	return nil
}

func (s *PostgresStore) VehiclesByResident(residentID int64) ([]models.Vehicle, error) {
	rows, err := s.db.Query(
		`SELECT id, plate, model, resident_id, house_id, created_at, updated_at FROM vehicles WHERE resident_id = $1 ORDER BY created_at`,
		residentID,
	)
	if err != nil {
		slog.Error("PostgresStore VehiclesByResident query failed", "error", err, "residentID", residentID)
		return nil, models.NewStorageError("query vehicles", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &v.ResidentID, &v.HouseID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			slog.Error("PostgresStore VehiclesByResident scan failed", "error", err)
			return nil, models.NewStorageError("scan vehicle row", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore VehiclesByResident rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate vehicle rows", err)
	}
	slog.Debug("PostgresStore VehiclesByResident succeeded", "residentID", residentID, "count", len(vehicles))
	return vehicles, nil
}

func (s *PostgresStore) CreateBlockedVehicle(b models.BlockedVehicle) error {
	_, err := s.db.Exec(
		`INSERT INTO blocked_vehicles (id, driver_id, plate, house_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.DriverID, models.NormalizePlate(b.Plate), b.HouseID, b.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateBlockedVehicle failed", "error", err, "recordID", b.ID)
		return models.NewStorageError("create blocked vehicle", err)
	}
	slog.Debug("PostgresStore CreateBlockedVehicle succeeded", "recordID", b.ID, "houseID", b.HouseID)
	return nil
}

func (s *PostgresStore) QueryBlockedVehicles(houseID int64, createdAfter time.Time) ([]models.BlockedVehicle, error) {
	rows, err := s.db.Query(
		`SELECT id, driver_id, plate, house_id, created_at FROM blocked_vehicles WHERE house_id = $1 AND created_at > $2 ORDER BY created_at`,
		houseID, createdAfter,
	)
	if err != nil {
		slog.Error("PostgresStore QueryBlockedVehicles query failed", "error", err, "houseID", houseID)
		return nil, models.NewStorageError("query blocked vehicles", err)
	}
	defer rows.Close()

	var blocked []models.BlockedVehicle
	for rows.Next() {
		var b models.BlockedVehicle
		if err := rows.Scan(&b.ID, &b.DriverID, &b.Plate, &b.HouseID, &b.CreatedAt); err != nil {
			slog.Error("PostgresStore QueryBlockedVehicles scan failed", "error", err)
			return nil, models.NewStorageError("scan blocked vehicle row", err)
		}
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore QueryBlockedVehicles rows iteration failed", "error", err)
		return nil, models.NewStorageError("iterate blocked vehicle rows", err)
	}
	slog.Debug("PostgresStore QueryBlockedVehicles succeeded", "houseID", houseID, "count", len(blocked))
	return blocked, nil
}

func (s *PostgresStore) DeleteBlockedVehiclesBefore(cutoff time.Time) error {
	res, err := s.db.Exec(`DELETE FROM blocked_vehicles WHERE created_at <= $1`, cutoff)
	if err != nil {
		slog.Error("PostgresStore DeleteBlockedVehiclesBefore failed", "error", err)
		return models.NewStorageError("delete blocked vehicles", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("PostgresStore DeleteBlockedVehiclesBefore succeeded", "deleted", n)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgresStore database connection")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
