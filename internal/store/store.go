// Package store provides storage backends for the concierge registry.
//
// It defines the Store interface over houses, residents, vehicles and
// blocked-vehicle records, with SQLite and PostgreSQL implementations plus an
// in-memory store used by tests and as a fallback when no DSN is configured.
// All implementations distinguish "not found" (models.ErrNotFound) and
// "already exists" (models.ErrAlreadyExists) from underlying storage failures
// (models.StorageError).
package store

import (
	"strings"
	"time"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// Store is the persistence boundary of the registry.
type Store interface {
	// FindHouse returns the house registered for the chat id.
	FindHouse(id int64) (models.House, error)
	// CreateHouse inserts a new house; ErrAlreadyExists when the id is taken.
	CreateHouse(h models.House) error
	// UpdateHouse rewrites the mutable fields of an existing house.
	UpdateHouse(h models.House) error

	// FindResident returns the journal record for the user id.
	FindResident(id int64) (models.Resident, error)
	// CreateResident inserts a new resident record.
	CreateResident(r models.Resident) error
	// UpdateResident rewrites an existing resident record.
	UpdateResident(r models.Resident) error
	// DeleteResident removes the record for the user id.
	DeleteResident(id int64) error
	// QueryResidentsByApart lists residents of one apartment in a house,
	// sorted by name. ErrEmpty when nobody matches.
	QueryResidentsByApart(houseID int64, apart int16) ([]models.Resident, error)

	// FindVehicleByPlate returns the vehicle with the normalized plate.
	FindVehicleByPlate(plate string) (models.Vehicle, error)
	// CreateVehicle inserts a new vehicle record.
	CreateVehicle(v models.Vehicle) error
	// UpdateVehicle rewrites the vehicle with the same plate.
	UpdateVehicle(v models.Vehicle) error
	// VehiclesByResident lists a resident's garage.
	VehiclesByResident(residentID int64) ([]models.Vehicle, error)

	// CreateBlockedVehicle inserts a parking-lock record.
	CreateBlockedVehicle(b models.BlockedVehicle) error
	// QueryBlockedVehicles lists a house's parking-lock records created
	// strictly after the cutoff, sorted by creation time ascending. No
	// matching records is not an error; the result is simply empty.
	QueryBlockedVehicles(houseID int64, createdAfter time.Time) ([]models.BlockedVehicle, error)
	// DeleteBlockedVehiclesBefore removes records created at or before the
	// cutoff, across all houses.
	DeleteBlockedVehiclesBefore(cutoff time.Time) error

	// Close releases the backend resources.
	Close() error
}

// Opts holds configuration for the SQL-backed stores.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite or a
	// postgres:// URL / key=value string for PostgreSQL.
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
