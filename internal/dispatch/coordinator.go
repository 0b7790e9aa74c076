package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/dispatch/internal/events"
	"github.com/clinicore/dispatch/internal/observability/metrics"
	"github.com/clinicore/dispatch/internal/resources"
	"github.com/clinicore/dispatch/internal/triage"
	"github.com/clinicore/dispatch/pkg/logging"
)

// Coordinator drives emergency requests through their lifecycle. It is the
// only writer of the request store; ambulance and bed state is mutated
// exclusively through the registry's operations.
type Coordinator struct {
	store      RequestStore
	registry   *resources.Registry
	classifier *triage.Classifier
	cache      *triage.AssessmentCache
	publisher  *events.Publisher
	metrics    *metrics.DispatchMetrics
	logger     *logging.Logger

	externalName string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CoordinatorOption customizes optional collaborators.
type CoordinatorOption func(*Coordinator)

// WithCache attaches a redis-backed assessment cache.
func WithCache(cache *triage.AssessmentCache) CoordinatorOption {
	return func(c *Coordinator) { c.cache = cache }
}

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(p *events.Publisher) CoordinatorOption {
	return func(c *Coordinator) { c.publisher = p }
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *metrics.DispatchMetrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// WithExternalClassifierName records the provider reported by AIStatus
// when an external classifier is wired in.
func WithExternalClassifierName(name string) CoordinatorOption {
	return func(c *Coordinator) { c.externalName = name }
}

// NewCoordinator wires the dispatch orchestrator.
func NewCoordinator(store RequestStore, registry *resources.Registry, classifier *triage.Classifier, logger *logging.Logger, opts ...CoordinatorOption) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Coordinator{
		store:      store,
		registry:   registry,
		classifier: classifier,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRequest validates the intake payload, reserves the requested
// ambulance when one is named, and persists the new request. The ambulance
// must currently be Available; anything else is a conflict and leaves the
// ambulance untouched. A request without an ambulance is valid and starts
// in Requested.
func (c *Coordinator) CreateRequest(ctx context.Context, in *CreateRequestInput) (*EmergencyRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	level, err := c.resolveLevel(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.HospitalID != "" {
		hosp, err := c.registry.GetHospital(in.HospitalID)
		if err != nil {
			return nil, err
		}
		if !hosp.Active {
			return nil, ErrHospitalInactive
		}
	}

	now := time.Now().UTC()
	req := &EmergencyRequest{
		ID:           uuid.NewString(),
		TrackingID:   NewTrackingID(now),
		PatientID:    in.PatientID,
		PatientName:  strings.TrimSpace(in.PatientName),
		PatientPhone: strings.TrimSpace(in.PatientPhone),
		Location:     strings.TrimSpace(in.Location),
		Symptoms:     strings.TrimSpace(in.Symptoms),
		Level:        level,
		Status:       StatusRequested,
		HospitalID:   in.HospitalID,
		Notes:        in.Notes,
		CreatedAt:    now,
	}

	if in.AmbulanceID != "" {
		amb, err := c.registry.ReserveAmbulanceByID(ctx, in.AmbulanceID, req.Location)
		if err != nil {
			c.metrics.ObserveReservation("conflict")
			return nil, err
		}
		c.metrics.ObserveReservation("reserved")
		req.AmbulanceID = amb.ID
		req.Status = StatusDispatched
		req.DispatchedAt = &now
	}

	if err := c.store.Create(ctx, req); err != nil {
		// Compensate: a reserved ambulance must not stay claimed by a
		// request that was never recorded.
		if req.AmbulanceID != "" {
			if relErr := c.registry.ReleaseAmbulance(ctx, req.AmbulanceID); relErr != nil {
				c.logger.Error("compensating release failed", "ambulance_id", req.AmbulanceID, "error", relErr)
			}
		}
		return nil, fmt.Errorf("dispatch: persist request: %w", err)
	}

	c.metrics.ObserveRequestCreated(req.Level.String())
	c.publish(ctx, events.DispatchEventV1{
		Kind:        events.KindRequestCreated,
		TrackingID:  req.TrackingID,
		Level:       req.Level.String(),
		To:          string(req.Status),
		AmbulanceID: req.AmbulanceID,
		HospitalID:  req.HospitalID,
	})
	c.logger.Info("emergency request created",
		"tracking_id", req.TrackingID,
		"level", req.Level.String(),
		"status", string(req.Status),
		"ambulance_id", req.AmbulanceID,
	)
	return req, nil
}

// UpdateStatus advances a request through the state machine, applying the
// ambulance side effects for the transition. Validation and side effects
// are serialized per request. Cancelling an already-terminal request is an
// idempotent no-op returning the request unchanged.
func (c *Coordinator) UpdateStatus(ctx context.Context, id string, target RequestStatus) (*EmergencyRequest, error) {
	lock := c.requestLock(id)
	lock.Lock()
	defer lock.Unlock()

	req, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if from.Terminal() && target == StatusCancelled {
		return req, nil
	}
	if !CanTransition(from, target) {
		c.metrics.ObserveTransition(string(from), string(target), false)
		return nil, fmt.Errorf("dispatch: %s → %s: %w", from, target, ErrInvalidTransition)
	}

	if err := c.applyAmbulanceEffect(ctx, req, target); err != nil {
		c.metrics.ObserveTransition(string(from), string(target), false)
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = target
	switch target {
	case StatusEnRoute:
		if req.DispatchedAt == nil {
			req.DispatchedAt = &now
		}
	case StatusArrived:
		req.ArrivedAt = &now
	case StatusCompleted:
		req.CompletedAt = &now
	case StatusCancelled:
		req.CancelledAt = &now
	}

	if err := c.store.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("dispatch: persist transition: %w", err)
	}

	if target.Terminal() {
		c.releaseLock(id)
	}

	c.metrics.ObserveTransition(string(from), string(target), true)
	c.publish(ctx, events.DispatchEventV1{
		Kind:        events.KindRequestTransitioned,
		TrackingID:  req.TrackingID,
		Level:       req.Level.String(),
		From:        string(from),
		To:          string(target),
		AmbulanceID: req.AmbulanceID,
		HospitalID:  req.HospitalID,
	})
	c.logger.Info("request status updated",
		"tracking_id", req.TrackingID,
		"from", string(from),
		"to", string(target),
	)
	return req, nil
}

// Cancel is UpdateStatus to Cancelled; kept separate because callers may
// retry it and rely on idempotency.
func (c *Coordinator) Cancel(ctx context.Context, id string) (*EmergencyRequest, error) {
	return c.UpdateStatus(ctx, id, StatusCancelled)
}

// Get returns the request by internal id. Transient store failures on
// idempotent reads are retried once; writes never are, to avoid a second
// side effect on the registry.
func (c *Coordinator) Get(ctx context.Context, id string) (*EmergencyRequest, error) {
	req, err := c.store.Get(ctx, id)
	if retriableRead(err) {
		req, err = c.store.Get(ctx, id)
	}
	return req, err
}

// Track returns the request by its public tracking id.
func (c *Coordinator) Track(ctx context.Context, trackingID string) (*EmergencyRequest, error) {
	req, err := c.store.GetByTrackingID(ctx, trackingID)
	if retriableRead(err) {
		req, err = c.store.GetByTrackingID(ctx, trackingID)
	}
	return req, err
}

// List returns requests, optionally filtered by status.
func (c *Coordinator) List(ctx context.Context, status *RequestStatus) ([]EmergencyRequest, error) {
	list, err := c.store.List(ctx, status)
	if retriableRead(err) {
		list, err = c.store.List(ctx, status)
	}
	return list, err
}

// retriableRead reports whether a read error is worth one retry. A
// not-found is a definitive answer, not a store failure.
func retriableRead(err error) bool {
	return err != nil && !errors.Is(err, ErrRequestNotFound)
}

// AssessmentResult is the composed triage answer for an assessment call.
type AssessmentResult struct {
	Level               triage.Level        `json:"level"`
	Action              string              `json:"action"`
	Recommendation      string              `json:"recommendation"`
	Rationale           string              `json:"rationale,omitempty"`
	CandidateConditions []string            `json:"candidateConditions,omitempty"`
	AmbulanceNeeded     bool                `json:"ambulanceNeeded"`
	RecommendedHospital *resources.Hospital `json:"recommendedHospital"`
	Source              string              `json:"source"`
}

// Assess classifies symptoms and composes a hospital recommendation. The
// answer is always usable: classifier failures fall back to the keyword
// engine and a missing hospital recommendation is null, never an error.
func (c *Coordinator) Assess(ctx context.Context, symptoms string) (*AssessmentResult, error) {
	started := time.Now()

	assessment := c.cache.Get(ctx, symptoms)
	if assessment == nil {
		var err error
		assessment, err = c.classifier.Classify(ctx, symptoms)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Put(ctx, symptoms, assessment); err != nil {
			c.logger.Warn("assessment cache write failed", "error", err)
		}
	}

	result := &AssessmentResult{
		Level:               assessment.Level,
		Action:              actionFor(assessment.Level),
		Recommendation:      assessment.Recommendation,
		Rationale:           assessment.Rationale,
		CandidateConditions: assessment.CandidateConditions,
		AmbulanceNeeded:     assessment.Level >= triage.LevelHigh,
		Source:              assessment.Source,
	}
	if assessment.Level >= triage.LevelHigh {
		result.RecommendedHospital = c.registry.RecommendHospital(assessment.Level)
	}

	c.metrics.ObserveClassification(assessment.Source)
	c.metrics.ObserveAssessmentLatency(time.Since(started).Seconds())
	return result, nil
}

// Stats summarizes fleet and request load.
type Stats struct {
	TotalAmbulances     int `json:"totalAmbulances"`
	AvailableAmbulances int `json:"availableAmbulances"`
	TotalHospitals      int `json:"totalHospitals"`
	ActiveRequests      int `json:"activeRequests"`
}

func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	active, err := c.store.CountActive(ctx)
	if retriableRead(err) {
		active, err = c.store.CountActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: count active: %w", err)
	}
	total, available, hospitals := c.registry.Counts()
	return &Stats{
		TotalAmbulances:     total,
		AvailableAmbulances: available,
		TotalHospitals:      hospitals,
		ActiveRequests:      active,
	}, nil
}

// AIStatus reports the classifier configuration. The keyword engine is
// always present; the external provider only adds nuance.
type AIStatus struct {
	Status             string `json:"status"`
	Mode               string `json:"mode"`
	ExternalConfigured bool   `json:"externalConfigured"`
	Fallback           string `json:"fallback"`
}

func (c *Coordinator) AIStatus() *AIStatus {
	s := &AIStatus{
		Status:   "triage classifier running",
		Mode:     "keyword rules",
		Fallback: "keyword rules",
	}
	if c.externalName != "" {
		s.Mode = c.externalName + " (with keyword fallback)"
		s.ExternalConfigured = true
	}
	return s
}

func (c *Coordinator) resolveLevel(ctx context.Context, in *CreateRequestInput) (triage.Level, error) {
	if in.Level != "" {
		return triage.ParseLevel(in.Level)
	}
	if strings.TrimSpace(in.Symptoms) == "" {
		return triage.LevelMedium, nil
	}
	assessment, err := c.classifier.Classify(ctx, in.Symptoms)
	if err != nil {
		return 0, err
	}
	return assessment.Level, nil
}

// applyAmbulanceEffect mutates ambulance state for the transition, always
// through the registry. Requests without an ambulance have no effect.
func (c *Coordinator) applyAmbulanceEffect(ctx context.Context, req *EmergencyRequest, target RequestStatus) error {
	if req.AmbulanceID == "" {
		return nil
	}
	switch target {
	case StatusEnRoute:
		_, err := c.registry.SetAmbulanceStatus(ctx, req.AmbulanceID, resources.AmbulanceEnRoute, req.Location)
		return err
	case StatusArrived:
		_, err := c.registry.SetAmbulanceStatus(ctx, req.AmbulanceID, resources.AmbulanceBusy, req.Location)
		return err
	case StatusCompleted, StatusCancelled:
		return c.registry.ReleaseAmbulance(ctx, req.AmbulanceID)
	default:
		return nil
	}
}

func (c *Coordinator) publish(ctx context.Context, event events.DispatchEventV1) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(ctx, event)
}

func (c *Coordinator) requestLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}

// releaseLock drops the per-request mutex once the request is terminal.
// Terminal requests only ever see idempotent no-op cancels, so a fresh
// mutex on a later call is harmless.
func (c *Coordinator) releaseLock(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, id)
}

func actionFor(level triage.Level) string {
	switch level {
	case triage.LevelCritical:
		return "Request ambulance IMMEDIATELY"
	case triage.LevelHigh:
		return "Go to the emergency department now"
	case triage.LevelMedium:
		return "Seek medical attention today"
	default:
		return "Monitor and observe"
	}
}
