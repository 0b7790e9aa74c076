package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/dispatch/internal/triage"
)

// requestDB is the subset of pgxpool.Pool the store needs, split out so
// tests can inject pgxmock.
type requestDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists emergency requests in the relational database.
type PostgresStore struct {
	db requestDB
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("dispatch: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db requestDB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, tracking_id, patient_id, patient_name, patient_phone, location, symptoms, level, status, ambulance_id, hospital_id, notes, created_at, dispatched_at, arrived_at, completed_at, cancelled_at`

func (s *PostgresStore) Create(ctx context.Context, req *EmergencyRequest) error {
	query := `
		INSERT INTO emergency_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	if _, err := s.db.Exec(ctx, query,
		req.ID,
		req.TrackingID,
		req.PatientID,
		req.PatientName,
		req.PatientPhone,
		req.Location,
		req.Symptoms,
		req.Level.String(),
		string(req.Status),
		req.AmbulanceID,
		req.HospitalID,
		req.Notes,
		req.CreatedAt,
		req.DispatchedAt,
		req.ArrivedAt,
		req.CompletedAt,
		req.CancelledAt,
	); err != nil {
		return fmt.Errorf("dispatch: insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*EmergencyRequest, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM emergency_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (s *PostgresStore) GetByTrackingID(ctx context.Context, trackingID string) (*EmergencyRequest, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM emergency_requests WHERE tracking_id = $1`, trackingID)
	return scanRequest(row)
}

func (s *PostgresStore) Update(ctx context.Context, req *EmergencyRequest) error {
	query := `
		UPDATE emergency_requests
		SET status = $2, notes = $3, dispatched_at = $4, arrived_at = $5, completed_at = $6, cancelled_at = $7
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		req.ID,
		string(req.Status),
		req.Notes,
		req.DispatchedAt,
		req.ArrivedAt,
		req.CompletedAt,
		req.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("dispatch: update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, status *RequestStatus) ([]EmergencyRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM emergency_requests ORDER BY created_at DESC`
	args := []any{}
	if status != nil {
		query = `SELECT ` + requestColumns + ` FROM emergency_requests WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, string(*status))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dispatch: select requests: %w", err)
	}
	defer rows.Close()

	var out []EmergencyRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM emergency_requests
		WHERE status NOT IN ('Completed', 'Cancelled')
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("dispatch: count active requests: %w", err)
	}
	return n, nil
}

func scanRequest(row pgx.Row) (*EmergencyRequest, error) {
	var req EmergencyRequest
	var level, status string
	if err := row.Scan(
		&req.ID,
		&req.TrackingID,
		&req.PatientID,
		&req.PatientName,
		&req.PatientPhone,
		&req.Location,
		&req.Symptoms,
		&level,
		&status,
		&req.AmbulanceID,
		&req.HospitalID,
		&req.Notes,
		&req.CreatedAt,
		&req.DispatchedAt,
		&req.ArrivedAt,
		&req.CompletedAt,
		&req.CancelledAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("dispatch: scan request: %w", err)
	}

	parsed, err := triage.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("dispatch: stored request %s: %w", req.ID, err)
	}
	req.Level = parsed
	req.Status = RequestStatus(status)
	return &req, nil
}
