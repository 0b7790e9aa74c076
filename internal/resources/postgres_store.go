package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// snapshotDB is the subset of pgxpool.Pool the store needs, split out so
// tests can inject pgxmock.
type snapshotDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists registry snapshots in the relational database.
type PostgresStore struct {
	db snapshotDB
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("resources: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db snapshotDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveAmbulance upserts the ambulance row.
func (s *PostgresStore) SaveAmbulance(ctx context.Context, amb *Ambulance) error {
	query := `
		INSERT INTO ambulances (id, vehicle_number, driver_name, driver_phone, type, status, current_location, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_location = EXCLUDED.current_location,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query,
		amb.ID,
		amb.VehicleNumber,
		amb.Driver.Name,
		amb.Driver.Phone,
		amb.Type,
		string(amb.Status),
		amb.CurrentLocation,
		amb.Active,
		amb.CreatedAt,
		amb.UpdatedAt,
	); err != nil {
		return fmt.Errorf("resources: upsert ambulance: %w", err)
	}
	return nil
}

// SaveHospital upserts the hospital row. Bed pools are stored as JSONB.
func (s *PostgresStore) SaveHospital(ctx context.Context, hosp *Hospital) error {
	beds, err := json.Marshal(hosp.Beds)
	if err != nil {
		return fmt.Errorf("resources: encode beds: %w", err)
	}
	query := `
		INSERT INTO hospitals (id, name, address, contact, distance, beds, has_ambulance, ambulance_eta, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			beds = EXCLUDED.beds,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query,
		hosp.ID,
		hosp.Name,
		hosp.Address,
		hosp.Contact,
		hosp.Distance,
		beds,
		hosp.HasAmbulance,
		hosp.AmbulanceETA,
		hosp.Active,
		hosp.CreatedAt,
		hosp.UpdatedAt,
	); err != nil {
		return fmt.Errorf("resources: upsert hospital: %w", err)
	}
	return nil
}

// LoadAmbulances reads all recorded ambulances.
func (s *PostgresStore) LoadAmbulances(ctx context.Context) ([]Ambulance, error) {
	query := `
		SELECT id, vehicle_number, driver_name, driver_phone, type, status, current_location, active, created_at, updated_at
		FROM ambulances
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resources: select ambulances: %w", err)
	}
	defer rows.Close()

	var out []Ambulance
	for rows.Next() {
		var amb Ambulance
		var status string
		if err := rows.Scan(
			&amb.ID,
			&amb.VehicleNumber,
			&amb.Driver.Name,
			&amb.Driver.Phone,
			&amb.Type,
			&status,
			&amb.CurrentLocation,
			&amb.Active,
			&amb.CreatedAt,
			&amb.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("resources: scan ambulance: %w", err)
		}
		amb.Status = AmbulanceStatus(status)
		out = append(out, amb)
	}
	return out, rows.Err()
}

// LoadHospitals reads all recorded hospitals.
func (s *PostgresStore) LoadHospitals(ctx context.Context) ([]Hospital, error) {
	query := `
		SELECT id, name, address, contact, distance, beds, has_ambulance, ambulance_eta, active, created_at, updated_at
		FROM hospitals
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resources: select hospitals: %w", err)
	}
	defer rows.Close()

	var out []Hospital
	for rows.Next() {
		var hosp Hospital
		var beds []byte
		if err := rows.Scan(
			&hosp.ID,
			&hosp.Name,
			&hosp.Address,
			&hosp.Contact,
			&hosp.Distance,
			&beds,
			&hosp.HasAmbulance,
			&hosp.AmbulanceETA,
			&hosp.Active,
			&hosp.CreatedAt,
			&hosp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("resources: scan hospital: %w", err)
		}
		if err := json.Unmarshal(beds, &hosp.Beds); err != nil {
			return nil, fmt.Errorf("resources: decode beds: %w", err)
		}
		out = append(out, hosp)
	}
	return out, rows.Err()
}
