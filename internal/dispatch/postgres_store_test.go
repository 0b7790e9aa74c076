package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/clinicore/dispatch/internal/triage"
)

var requestRowColumns = []string{
	"id", "tracking_id", "patient_id", "patient_name", "patient_phone",
	"location", "symptoms", "level", "status", "ambulance_id", "hospital_id",
	"notes", "created_at", "dispatched_at", "arrived_at", "completed_at", "cancelled_at",
}

func TestPostgresStoreCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	req := &EmergencyRequest{
		ID:           "r1",
		TrackingID:   "EMG-ABC123",
		PatientName:  "Dana Reyes",
		Location:     "12 Main St",
		Symptoms:     "chest pain",
		Level:        triage.LevelCritical,
		Status:       StatusDispatched,
		AmbulanceID:  "a1",
		CreatedAt:    now,
		DispatchedAt: &now,
	}

	mock.ExpectExec("INSERT INTO emergency_requests").
		WithArgs(req.ID, req.TrackingID, req.PatientID, req.PatientName,
			req.PatientPhone, req.Location, req.Symptoms, "CRITICAL",
			"Dispatched", req.AmbulanceID, req.HospitalID, req.Notes,
			req.CreatedAt, req.DispatchedAt, req.ArrivedAt, req.CompletedAt, req.CancelledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgresStoreWithDB(mock)
	if err := store.Create(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreGetByTrackingID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows(requestRowColumns).
		AddRow("r1", "EMG-ABC123", "", "Dana Reyes", "", "12 Main St",
			"chest pain", "CRITICAL", "En Route", "a1", "", "",
			now, &now, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM emergency_requests WHERE tracking_id").
		WithArgs("EMG-ABC123").
		WillReturnRows(rows)

	store := NewPostgresStoreWithDB(mock)
	req, err := store.GetByTrackingID(context.Background(), "EMG-ABC123")
	if err != nil {
		t.Fatal(err)
	}
	if req.Level != triage.LevelCritical || req.Status != StatusEnRoute {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.DispatchedAt == nil || req.ArrivedAt != nil {
		t.Errorf("timestamps did not survive the scan: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreUpdateUnknownRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE emergency_requests").
		WithArgs("missing", "Cancelled", "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := NewPostgresStoreWithDB(mock)
	now := time.Now().UTC()
	err = store.Update(context.Background(), &EmergencyRequest{
		ID:          "missing",
		Status:      StatusCancelled,
		CancelledAt: &now,
	})
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreCountActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	store := NewPostgresStoreWithDB(mock)
	n, err := store.CountActive(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
