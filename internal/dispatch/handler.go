package dispatch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/dispatch/internal/resources"
	"github.com/clinicore/dispatch/internal/triage"
	"github.com/clinicore/dispatch/pkg/logging"
)

// Handler exposes emergency request intake, tracking, and triage over HTTP.
type Handler struct {
	coordinator *Coordinator
	logger      *logging.Logger
}

// NewHandler creates a dispatch handler.
func NewHandler(coordinator *Coordinator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{coordinator: coordinator, logger: logger}
}

// CreateRequest handles POST /requests. Unknown fields are rejected so a
// mistyped payload cannot silently drop patient details.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in CreateRequestInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.Level != "" {
		if _, err := triage.ParseLevel(in.Level); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	req, err := h.coordinator.CreateRequest(r.Context(), &in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"trackingId": req.TrackingID,
		"request":    req,
	})
}

// UpdateStatus handles PUT /requests/{id}/status. Unknown fields are
// rejected so a mistyped payload cannot silently no-op.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Status string `json:"status"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status, err := ParseRequestStatus(body.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := h.coordinator.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListRequests handles GET /requests?status=.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	var filter *RequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := ParseRequestStatus(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter = &status
	}

	list, err := h.coordinator.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// TrackRequest handles GET /requests/track/{trackingId}. The tracking id
// is the only identifier exposed to end users.
func (h *Handler) TrackRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.coordinator.Track(r.Context(), chi.URLParam(r, "trackingId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Assess handles POST /assess.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symptoms string `json:"symptoms"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.Assess(r.Context(), body.Symptoms)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coordinator.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AIStatus handles GET /ai/status.
func (h *Handler) AIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.AIStatus())
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRequestNotFound),
		errors.Is(err, resources.ErrAmbulanceNotFound),
		errors.Is(err, resources.ErrHospitalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrHospitalInactive),
		errors.Is(err, resources.ErrAmbulanceConflict),
		errors.Is(err, resources.ErrAmbulanceNotAvailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrPatientNameRequired),
		errors.Is(err, ErrLocationRequired),
		errors.Is(err, triage.ErrEmptySymptoms):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("dispatch request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
