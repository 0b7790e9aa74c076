package resources

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/dispatch/pkg/logging"
)

// Handler exposes hospital and ambulance administration over HTTP.
type Handler struct {
	registry *Registry
	logger   *logging.Logger
}

// NewHandler creates a resources handler.
func NewHandler(registry *Registry, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// ListHospitals handles GET /hospitals.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.ListHospitals())
}

// CreateHospital handles POST /hospitals. As everywhere in the admin
// surface, unknown fields in the payload are rejected.
func (h *Handler) CreateHospital(w http.ResponseWriter, r *http.Request) {
	var req CreateHospitalRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hosp, err := h.registry.AddHospital(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("hospital created", "id", hosp.ID, "name", hosp.Name)
	writeJSON(w, http.StatusCreated, hosp)
}

// UpdateBeds handles PUT /hospitals/{id}/beds.
func (h *Handler) UpdateBeds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Beds Beds `json:"beds"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hosp, err := h.registry.SetBeds(r.Context(), id, req.Beds)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("hospital beds updated", "id", hosp.ID)
	writeJSON(w, http.StatusOK, hosp)
}

// AdjustBeds handles PATCH /hospitals/{id}/beds, applying a delta to one pool.
func (h *Handler) AdjustBeds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Pool  string `json:"pool"`
		Delta int    `json:"delta"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pool, err := ParsePoolName(req.Pool)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	available, err := h.registry.AdjustBeds(r.Context(), id, pool, req.Delta)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hospital_id": id,
		"pool":        pool,
		"available":   available,
	})
}

// DeactivateHospital handles DELETE /hospitals/{id} (soft-deactivate).
func (h *Handler) DeactivateHospital(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.DeactivateHospital(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("hospital deactivated", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "hospital deactivated"})
}

// ListAmbulances handles GET /ambulances.
func (h *Handler) ListAmbulances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.ListAmbulances(false))
}

// ListAvailableAmbulances handles GET /ambulances/available.
func (h *Handler) ListAvailableAmbulances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.ListAmbulances(true))
}

// CreateAmbulance handles POST /ambulances.
func (h *Handler) CreateAmbulance(w http.ResponseWriter, r *http.Request) {
	var req CreateAmbulanceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amb, err := h.registry.AddAmbulance(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("ambulance created", "id", amb.ID, "vehicle", amb.VehicleNumber)
	writeJSON(w, http.StatusCreated, amb)
}

// UpdateAmbulanceStatus handles PUT /ambulances/{id}/status.
func (h *Handler) UpdateAmbulanceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status          string `json:"status"`
		CurrentLocation string `json:"current_location"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := ParseAmbulanceStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amb, err := h.registry.SetAmbulanceStatus(r.Context(), id, status, req.CurrentLocation)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("ambulance status updated", "id", id, "status", status)
	writeJSON(w, http.StatusOK, amb)
}

// DeactivateAmbulance handles DELETE /ambulances/{id} (soft-deactivate).
func (h *Handler) DeactivateAmbulance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.DeactivateAmbulance(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("ambulance deactivated", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ambulance deactivated"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrHospitalNotFound), errors.Is(err, ErrAmbulanceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAmbulanceConflict), errors.Is(err, ErrAmbulanceNotAvailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrHospitalNameRequired), errors.Is(err, ErrVehicleNumberRequired), errors.Is(err, ErrBedPoolInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("resources request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
