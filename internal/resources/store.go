package resources

import (
	"context"
	"sync"
)

// Store records registry state for durability. The Registry remains
// authoritative; a Store is written to after each mutation and read only
// at process start.
type Store interface {
	SaveAmbulance(ctx context.Context, amb *Ambulance) error
	SaveHospital(ctx context.Context, hosp *Hospital) error
	LoadAmbulances(ctx context.Context) ([]Ambulance, error)
	LoadHospitals(ctx context.Context) ([]Hospital, error)
}

// InMemoryStore is the default Store for development and tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	ambulances map[string]Ambulance
	hospitals  map[string]Hospital
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		ambulances: make(map[string]Ambulance),
		hospitals:  make(map[string]Hospital),
	}
}

// SaveAmbulance stores a copy of the ambulance.
func (s *InMemoryStore) SaveAmbulance(ctx context.Context, amb *Ambulance) error {
	s.mu.Lock()
	s.ambulances[amb.ID] = *amb
	s.mu.Unlock()
	return nil
}

// SaveHospital stores a copy of the hospital.
func (s *InMemoryStore) SaveHospital(ctx context.Context, hosp *Hospital) error {
	s.mu.Lock()
	s.hospitals[hosp.ID] = *hosp
	s.mu.Unlock()
	return nil
}

// LoadAmbulances returns all recorded ambulances.
func (s *InMemoryStore) LoadAmbulances(ctx context.Context) ([]Ambulance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ambulance, 0, len(s.ambulances))
	for _, amb := range s.ambulances {
		out = append(out, amb)
	}
	return out, nil
}

// LoadHospitals returns all recorded hospitals.
func (s *InMemoryStore) LoadHospitals(ctx context.Context) ([]Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Hospital, 0, len(s.hospitals))
	for _, hosp := range s.hospitals {
		out = append(out, hosp)
	}
	return out, nil
}
