package dispatch

import (
	"context"
	"sort"
	"sync"
)

// RequestStore is the durable record of emergency requests. Requests are
// never deleted; they only reach a terminal status.
type RequestStore interface {
	Create(ctx context.Context, req *EmergencyRequest) error
	Get(ctx context.Context, id string) (*EmergencyRequest, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*EmergencyRequest, error)
	Update(ctx context.Context, req *EmergencyRequest) error
	List(ctx context.Context, status *RequestStatus) ([]EmergencyRequest, error)
	CountActive(ctx context.Context) (int, error)
}

// InMemoryStore keeps requests in a map. Used in tests and when no
// database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]EmergencyRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]EmergencyRequest)}
}

func (s *InMemoryStore) Create(ctx context.Context, req *EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (s *InMemoryStore) GetByTrackingID(ctx context.Context, trackingID string) (*EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.TrackingID == trackingID {
			out := req
			return &out, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (s *InMemoryStore) Update(ctx context.Context, req *EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return ErrRequestNotFound
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, status *RequestStatus) ([]EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EmergencyRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, req)
	}
	// Newest first, stable across runs.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) CountActive(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, req := range s.requests {
		if !req.Status.Terminal() {
			n++
		}
	}
	return n, nil
}
