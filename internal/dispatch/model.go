package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/clinicore/dispatch/internal/triage"
)

// RequestStatus is the lifecycle state of an emergency request.
type RequestStatus string

const (
	StatusRequested  RequestStatus = "Requested"
	StatusDispatched RequestStatus = "Dispatched"
	StatusEnRoute    RequestStatus = "En Route"
	StatusArrived    RequestStatus = "Arrived"
	StatusCompleted  RequestStatus = "Completed"
	StatusCancelled  RequestStatus = "Cancelled"
)

// ParseRequestStatus validates a status string from the wire.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch status := RequestStatus(s); status {
	case StatusRequested, StatusDispatched, StatusEnRoute, StatusArrived, StatusCompleted, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("dispatch: unknown request status %q", s)
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// EmergencyRequest is the durable record of one dispatch case. The
// ambulance reference, once set, never changes for the life of the
// request; reassignment means cancel and recreate.
type EmergencyRequest struct {
	ID           string        `json:"id"`
	TrackingID   string        `json:"trackingId"`
	PatientID    string        `json:"patientId,omitempty"`
	PatientName  string        `json:"patientName"`
	PatientPhone string        `json:"patientPhone,omitempty"`
	Location     string        `json:"location"`
	Symptoms     string        `json:"symptoms,omitempty"`
	Level        triage.Level  `json:"emergencyLevel"`
	Status       RequestStatus `json:"status"`
	AmbulanceID  string        `json:"ambulanceId,omitempty"`
	HospitalID   string        `json:"hospitalId,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	DispatchedAt *time.Time    `json:"dispatchedAt,omitempty"`
	ArrivedAt    *time.Time    `json:"arrivedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty"`
}

// CreateRequestInput is the validated intake payload.
type CreateRequestInput struct {
	PatientID    string `json:"patientId"`
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	Location     string `json:"location"`
	Symptoms     string `json:"symptoms"`
	Level        string `json:"emergencyLevel"`
	AmbulanceID  string `json:"ambulanceId"`
	HospitalID   string `json:"hospitalId"`
	Notes        string `json:"notes"`
}

// Validate checks the fields required at intake.
func (in *CreateRequestInput) Validate() error {
	if strings.TrimSpace(in.PatientName) == "" {
		return ErrPatientNameRequired
	}
	if strings.TrimSpace(in.Location) == "" {
		return ErrLocationRequired
	}
	return nil
}

// trackingMu serializes tracking id generation so two requests created in
// the same millisecond still get distinct ids.
var (
	trackingMu sync.Mutex
	lastStamp  int64
)

// NewTrackingID returns the human-shareable identifier for a request:
// "EMG-" plus the creation time in uppercase base 36. It is the only
// identifier safe to hand to end users.
func NewTrackingID(now time.Time) string {
	trackingMu.Lock()
	stamp := now.UnixMilli()
	if stamp <= lastStamp {
		stamp = lastStamp + 1
	}
	lastStamp = stamp
	trackingMu.Unlock()

	return "EMG-" + strings.ToUpper(strconv.FormatInt(stamp, 36))
}
