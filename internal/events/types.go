package events

import "time"

// Event kinds emitted by the dispatch coordinator.
const (
	KindRequestCreated      = "request.created"
	KindRequestTransitioned = "request.transitioned"
)

// DispatchEventV1 records a lifecycle change of an emergency request.
// The request itself is identified by its tracking id; ambulance and
// hospital ids let consumers correlate with the resource registry.
type DispatchEventV1 struct {
	EventID     string    `json:"event_id"`
	Kind        string    `json:"kind"`
	TrackingID  string    `json:"tracking_id"`
	Level       string    `json:"level"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	AmbulanceID string    `json:"ambulance_id,omitempty"`
	HospitalID  string    `json:"hospital_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
