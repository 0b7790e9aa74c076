package resources

import "errors"

var (
	// ErrHospitalNameRequired is returned when a hospital has no name
	ErrHospitalNameRequired = errors.New("hospital name is required")

	// ErrVehicleNumberRequired is returned when an ambulance has no vehicle number
	ErrVehicleNumberRequired = errors.New("vehicle number is required")

	// ErrBedPoolInvalid is returned when available beds exceed the pool total
	ErrBedPoolInvalid = errors.New("available beds cannot exceed total")

	// ErrHospitalNotFound is returned when a hospital id is unknown
	ErrHospitalNotFound = errors.New("hospital not found")

	// ErrAmbulanceNotFound is returned when an ambulance id is unknown
	ErrAmbulanceNotFound = errors.New("ambulance not found")

	// ErrAmbulanceNotAvailable is returned when no ambulance can be reserved
	ErrAmbulanceNotAvailable = errors.New("no ambulance available")

	// ErrAmbulanceConflict is returned when a specific ambulance is requested
	// but is not currently Available. Distinct from not-found so callers can
	// retry against a different vehicle.
	ErrAmbulanceConflict = errors.New("ambulance is not available for dispatch")
)
