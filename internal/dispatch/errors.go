package dispatch

import "errors"

var (
	// ErrPatientNameRequired is returned when a request has no patient name
	ErrPatientNameRequired = errors.New("patient name is required")

	// ErrLocationRequired is returned when a request has no location
	ErrLocationRequired = errors.New("location is required")

	// ErrRequestNotFound is returned when a request id or tracking id is unknown
	ErrRequestNotFound = errors.New("emergency request not found")

	// ErrInvalidTransition is returned when a status change is not permitted
	// by the request lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrHospitalInactive is returned when a request names a hospital that
	// has been deactivated
	ErrHospitalInactive = errors.New("hospital is not active")
)
