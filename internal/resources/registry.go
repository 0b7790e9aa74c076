package resources

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/dispatch/internal/triage"
	"github.com/clinicore/dispatch/pkg/logging"
)

// Registry owns the authoritative ambulance and hospital state. It is the
// single writer of ambulance status and bed counts; every mutation goes
// through one of its operations under a per-entity lock. The snapshot
// Store is a passive record keeper and never a source of truth.
type Registry struct {
	mu         sync.RWMutex // guards the maps, not entity state
	ambulances map[string]*ambulanceEntry
	hospitals  map[string]*hospitalEntry

	store       Store
	baseStation string
	logger      *logging.Logger
}

type ambulanceEntry struct {
	mu  sync.Mutex
	amb Ambulance
}

type hospitalEntry struct {
	mu   sync.Mutex
	hosp Hospital
}

// NewRegistry builds a Registry. store may be nil, in which case no
// snapshots are recorded. baseStation is the location an ambulance
// returns to on release.
func NewRegistry(store Store, baseStation string, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	if baseStation == "" {
		baseStation = "Base Station"
	}
	return &Registry{
		ambulances:  make(map[string]*ambulanceEntry),
		hospitals:   make(map[string]*hospitalEntry),
		store:       store,
		baseStation: baseStation,
		logger:      logger,
	}
}

// BaseStation returns the release-location sentinel.
func (r *Registry) BaseStation() string {
	return r.baseStation
}

// Restore hydrates the registry from the snapshot store at process start.
// It replaces nothing once entities exist; call before serving traffic.
func (r *Registry) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	ambulances, err := r.store.LoadAmbulances(ctx)
	if err != nil {
		return err
	}
	hospitals, err := r.store.LoadHospitals(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, amb := range ambulances {
		if _, ok := r.ambulances[amb.ID]; !ok {
			r.ambulances[amb.ID] = &ambulanceEntry{amb: amb}
		}
	}
	for _, hosp := range hospitals {
		if _, ok := r.hospitals[hosp.ID]; !ok {
			r.hospitals[hosp.ID] = &hospitalEntry{hosp: hosp}
		}
	}
	r.mu.Unlock()

	r.logger.Info("registry restored",
		"ambulances", len(ambulances),
		"hospitals", len(hospitals),
	)
	return nil
}

// AddAmbulance registers a new ambulance, initially Available at base.
func (r *Registry) AddAmbulance(ctx context.Context, req *CreateAmbulanceRequest) (*Ambulance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	amb := Ambulance{
		ID:              uuid.NewString(),
		VehicleNumber:   req.VehicleNumber,
		Driver:          req.Driver,
		Type:            req.Type,
		Status:          AmbulanceAvailable,
		CurrentLocation: req.CurrentLocation,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if amb.Type == "" {
		amb.Type = "Basic Life Support"
	}
	if amb.CurrentLocation == "" {
		amb.CurrentLocation = r.baseStation
	}

	r.mu.Lock()
	r.ambulances[amb.ID] = &ambulanceEntry{amb: amb}
	r.mu.Unlock()

	r.snapshotAmbulance(ctx, amb)
	return &amb, nil
}

// AddHospital registers a new hospital.
func (r *Registry) AddHospital(ctx context.Context, req *CreateHospitalRequest) (*Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hosp := Hospital{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Address:      req.Address,
		Contact:      req.Contact,
		Distance:     req.Distance,
		Beds:         req.Beds,
		HasAmbulance: req.HasAmbulance,
		AmbulanceETA: req.AmbulanceETA,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	r.hospitals[hosp.ID] = &hospitalEntry{hosp: hosp}
	r.mu.Unlock()

	r.snapshotHospital(ctx, hosp)
	return &hosp, nil
}

// GetAmbulance returns a copy of the ambulance state.
func (r *Registry) GetAmbulance(id string) (*Ambulance, error) {
	entry, err := r.ambulanceEntry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	amb := entry.amb
	entry.mu.Unlock()
	return &amb, nil
}

// GetHospital returns a copy of the hospital state.
func (r *Registry) GetHospital(id string) (*Hospital, error) {
	entry, err := r.hospitalEntry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	hosp := entry.hosp
	entry.mu.Unlock()
	return &hosp, nil
}

// ListAmbulances returns active ambulances ordered by vehicle number.
// When availableOnly is set, only Available units are included.
func (r *Registry) ListAmbulances(availableOnly bool) []Ambulance {
	entries := r.ambulanceEntries()
	out := make([]Ambulance, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		amb := entry.amb
		entry.mu.Unlock()
		if !amb.Active {
			continue
		}
		if availableOnly && amb.Status != AmbulanceAvailable {
			continue
		}
		out = append(out, amb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleNumber < out[j].VehicleNumber })
	return out
}

// ListHospitals returns active hospitals ordered by ascending distance.
func (r *Registry) ListHospitals() []Hospital {
	entries := r.hospitalEntries()
	out := make([]Hospital, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		hosp := entry.hosp
		entry.mu.Unlock()
		if hosp.Active {
			out = append(out, hosp)
		}
	}
	sortHospitals(out)
	return out
}

// ReserveAmbulance claims the first Available active ambulance, flipping it
// to Dispatched at the given location. The read-select-write is indivisible
// per ambulance: two concurrent reservations can never both claim the same
// vehicle.
func (r *Registry) ReserveAmbulance(ctx context.Context, location string) (*Ambulance, error) {
	for _, entry := range r.ambulanceEntries() {
		entry.mu.Lock()
		if entry.amb.Active && entry.amb.Status == AmbulanceAvailable {
			entry.amb.Status = AmbulanceDispatched
			entry.amb.CurrentLocation = location
			entry.amb.UpdatedAt = time.Now().UTC()
			amb := entry.amb
			entry.mu.Unlock()
			r.snapshotAmbulance(ctx, amb)
			return &amb, nil
		}
		entry.mu.Unlock()
	}
	return nil, ErrAmbulanceNotAvailable
}

// ReserveAmbulanceByID claims a specific ambulance. A vehicle that exists
// but is not Available yields ErrAmbulanceConflict and is left untouched.
func (r *Registry) ReserveAmbulanceByID(ctx context.Context, id, location string) (*Ambulance, error) {
	entry, err := r.ambulanceEntry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if !entry.amb.Active || entry.amb.Status != AmbulanceAvailable {
		entry.mu.Unlock()
		return nil, ErrAmbulanceConflict
	}
	entry.amb.Status = AmbulanceDispatched
	entry.amb.CurrentLocation = location
	entry.amb.UpdatedAt = time.Now().UTC()
	amb := entry.amb
	entry.mu.Unlock()

	r.snapshotAmbulance(ctx, amb)
	return &amb, nil
}

// ReleaseAmbulance returns an ambulance to Available at the base station.
// Releasing an already-Available ambulance is a no-op, not an error.
func (r *Registry) ReleaseAmbulance(ctx context.Context, id string) error {
	entry, err := r.ambulanceEntry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if entry.amb.Status == AmbulanceAvailable {
		entry.mu.Unlock()
		return nil
	}
	entry.amb.Status = AmbulanceAvailable
	entry.amb.CurrentLocation = r.baseStation
	entry.amb.UpdatedAt = time.Now().UTC()
	amb := entry.amb
	entry.mu.Unlock()

	r.snapshotAmbulance(ctx, amb)
	return nil
}

// SetAmbulanceStatus applies an explicit status transition, used by the
// dispatch coordinator and the admin endpoint. Available targets go
// through release semantics so the location sentinel stays consistent.
func (r *Registry) SetAmbulanceStatus(ctx context.Context, id string, status AmbulanceStatus, location string) (*Ambulance, error) {
	if status == AmbulanceAvailable {
		if err := r.ReleaseAmbulance(ctx, id); err != nil {
			return nil, err
		}
		return r.GetAmbulance(id)
	}

	entry, err := r.ambulanceEntry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	entry.amb.Status = status
	if location != "" {
		entry.amb.CurrentLocation = location
	}
	entry.amb.UpdatedAt = time.Now().UTC()
	amb := entry.amb
	entry.mu.Unlock()

	r.snapshotAmbulance(ctx, amb)
	return &amb, nil
}

// DeactivateAmbulance soft-deletes an ambulance.
func (r *Registry) DeactivateAmbulance(ctx context.Context, id string) error {
	entry, err := r.ambulanceEntry(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.amb.Active = false
	entry.amb.UpdatedAt = time.Now().UTC()
	amb := entry.amb
	entry.mu.Unlock()

	r.snapshotAmbulance(ctx, amb)
	return nil
}

// DeactivateHospital soft-deletes a hospital. Open requests keep their
// reference; the hospital simply stops receiving recommendations.
func (r *Registry) DeactivateHospital(ctx context.Context, id string) error {
	entry, err := r.hospitalEntry(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.hosp.Active = false
	entry.hosp.UpdatedAt = time.Now().UTC()
	hosp := entry.hosp
	entry.mu.Unlock()

	r.snapshotHospital(ctx, hosp)
	return nil
}

// RecommendHospital ranks active hospitals for a CRITICAL or HIGH request.
// CRITICAL prefers ICU availability with emergency beds as the fallback
// pool; HIGH prefers emergency with ICU as the fallback. Candidates are
// ordered by ascending distance, then name. A nil result means "proceed
// without a pre-assigned hospital", never a failure.
func (r *Registry) RecommendHospital(level triage.Level) *Hospital {
	if level < triage.LevelHigh {
		return nil
	}

	primary, secondary := PoolEmergency, PoolICU
	if level == triage.LevelCritical {
		primary, secondary = PoolICU, PoolEmergency
	}

	hospitals := r.ListHospitals()
	for _, pool := range []PoolName{primary, secondary} {
		for i := range hospitals {
			if poolOf(&hospitals[i].Beds, pool).Available > 0 {
				return &hospitals[i]
			}
		}
	}
	return nil
}

// AdjustBeds applies delta to a pool's available count, clamped to
// [0, total]. Saturation never raises; callers inspect the returned
// post-value to detect it.
func (r *Registry) AdjustBeds(ctx context.Context, hospitalID string, pool PoolName, delta int) (uint, error) {
	entry, err := r.hospitalEntry(hospitalID)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	p := poolOf(&entry.hosp.Beds, pool)
	next := int(p.Available) + delta
	if next < 0 {
		next = 0
	}
	if next > int(p.Total) {
		next = int(p.Total)
	}
	p.Available = uint(next)
	entry.hosp.UpdatedAt = time.Now().UTC()
	hosp := entry.hosp
	entry.mu.Unlock()

	r.snapshotHospital(ctx, hosp)
	return uint(next), nil
}

// SetBeds replaces all bed pools (administrative resize). Available counts
// are clamped to the new totals.
func (r *Registry) SetBeds(ctx context.Context, hospitalID string, beds Beds) (*Hospital, error) {
	entry, err := r.hospitalEntry(hospitalID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	entry.hosp.Beds = beds
	for _, pool := range []PoolName{PoolICU, PoolGeneral, PoolEmergency} {
		p := poolOf(&entry.hosp.Beds, pool)
		if p.Available > p.Total {
			p.Available = p.Total
		}
	}
	entry.hosp.UpdatedAt = time.Now().UTC()
	hosp := entry.hosp
	entry.mu.Unlock()

	r.snapshotHospital(ctx, hosp)
	return &hosp, nil
}

// Counts reports aggregate ambulance and hospital figures for /stats.
func (r *Registry) Counts() (totalAmbulances, availableAmbulances, totalHospitals int) {
	for _, amb := range r.ListAmbulances(false) {
		totalAmbulances++
		if amb.Status == AmbulanceAvailable {
			availableAmbulances++
		}
	}
	totalHospitals = len(r.ListHospitals())
	return
}

// ambulanceEntries snapshots entry pointers in deterministic (sorted id)
// order. Entity locks are taken by callers one at a time, never nested.
func (r *Registry) ambulanceEntries() []*ambulanceEntry {
	r.mu.RLock()
	ids := make([]string, 0, len(r.ambulances))
	for id := range r.ambulances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]*ambulanceEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, r.ambulances[id])
	}
	r.mu.RUnlock()
	return entries
}

func (r *Registry) hospitalEntries() []*hospitalEntry {
	r.mu.RLock()
	ids := make([]string, 0, len(r.hospitals))
	for id := range r.hospitals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]*hospitalEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, r.hospitals[id])
	}
	r.mu.RUnlock()
	return entries
}

func (r *Registry) ambulanceEntry(id string) (*ambulanceEntry, error) {
	r.mu.RLock()
	entry, ok := r.ambulances[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrAmbulanceNotFound
	}
	return entry, nil
}

func (r *Registry) hospitalEntry(id string) (*hospitalEntry, error) {
	r.mu.RLock()
	entry, ok := r.hospitals[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrHospitalNotFound
	}
	return entry, nil
}

func (r *Registry) snapshotAmbulance(ctx context.Context, amb Ambulance) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveAmbulance(ctx, &amb); err != nil {
		r.logger.Error("ambulance snapshot failed", "error", err, "ambulance_id", amb.ID)
	}
}

func (r *Registry) snapshotHospital(ctx context.Context, hosp Hospital) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveHospital(ctx, &hosp); err != nil {
		r.logger.Error("hospital snapshot failed", "error", err, "hospital_id", hosp.ID)
	}
}

func poolOf(beds *Beds, name PoolName) *BedPool {
	switch name {
	case PoolICU:
		return &beds.ICU
	case PoolGeneral:
		return &beds.General
	default:
		return &beds.Emergency
	}
}

func sortHospitals(hospitals []Hospital) {
	sort.Slice(hospitals, func(i, j int) bool {
		di, dj := hospitals[i].distanceRank(), hospitals[j].distanceRank()
		if di != dj {
			return di < dj
		}
		return hospitals[i].Name < hospitals[j].Name
	})
}
