package resources

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AmbulanceStatus is the closed set of ambulance states.
type AmbulanceStatus string

const (
	AmbulanceAvailable   AmbulanceStatus = "Available"
	AmbulanceDispatched  AmbulanceStatus = "Dispatched"
	AmbulanceEnRoute     AmbulanceStatus = "En Route"
	AmbulanceBusy        AmbulanceStatus = "Busy"
	AmbulanceMaintenance AmbulanceStatus = "Maintenance"
)

// ParseAmbulanceStatus validates a wire status string.
func ParseAmbulanceStatus(s string) (AmbulanceStatus, error) {
	switch AmbulanceStatus(strings.TrimSpace(s)) {
	case AmbulanceAvailable, AmbulanceDispatched, AmbulanceEnRoute, AmbulanceBusy, AmbulanceMaintenance:
		return AmbulanceStatus(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("resources: unknown ambulance status %q", s)
	}
}

// Driver identifies who is operating an ambulance.
type Driver struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Ambulance is a dispatchable vehicle. Status only changes through
// Registry operations; at most one open emergency request may hold a
// given ambulance at a time.
type Ambulance struct {
	ID              string          `json:"id"`
	VehicleNumber   string          `json:"vehicle_number"`
	Driver          Driver          `json:"driver"`
	Type            string          `json:"type"`
	Status          AmbulanceStatus `json:"status"`
	CurrentLocation string          `json:"current_location"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BedPool is a bounded counter of one category of hospital capacity.
// 0 <= Available <= Total at all times.
type BedPool struct {
	Total     uint `json:"total"`
	Available uint `json:"available"`
}

// Beds groups the three named pools.
type Beds struct {
	ICU       BedPool `json:"icu"`
	General   BedPool `json:"general"`
	Emergency BedPool `json:"emergency"`
}

// PoolName selects a bed pool.
type PoolName string

const (
	PoolICU       PoolName = "icu"
	PoolGeneral   PoolName = "general"
	PoolEmergency PoolName = "emergency"
)

// ParsePoolName validates a wire pool name.
func ParsePoolName(s string) (PoolName, error) {
	switch PoolName(strings.ToLower(strings.TrimSpace(s))) {
	case PoolICU, PoolGeneral, PoolEmergency:
		return PoolName(strings.ToLower(strings.TrimSpace(s))), nil
	default:
		return "", fmt.Errorf("resources: unknown bed pool %q", s)
	}
}

// Hospital is a destination facility. Bed counts are mutated only through
// Registry operations or administrative resize.
type Hospital struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Contact      string    `json:"contact"`
	Distance     string    `json:"distance"`
	Beds         Beds      `json:"beds"`
	HasAmbulance bool      `json:"has_ambulance"`
	AmbulanceETA string    `json:"ambulance_eta"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// distanceRank parses the leading number of the opaque distance string for
// ordering. Hospitals without a parsable distance sort last.
func (h *Hospital) distanceRank() float64 {
	s := strings.TrimSpace(h.Distance)
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return maxDistance
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return maxDistance
	}
	return v
}

const maxDistance = 1e18

// CreateHospitalRequest is the admin payload for registering a hospital.
type CreateHospitalRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Contact      string `json:"contact"`
	Distance     string `json:"distance"`
	Beds         Beds   `json:"beds"`
	HasAmbulance bool   `json:"has_ambulance"`
	AmbulanceETA string `json:"ambulance_eta"`
}

// Validate checks required fields and bed pool consistency.
func (r *CreateHospitalRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrHospitalNameRequired
	}
	for _, pool := range []BedPool{r.Beds.ICU, r.Beds.General, r.Beds.Emergency} {
		if pool.Available > pool.Total {
			return ErrBedPoolInvalid
		}
	}
	return nil
}

// CreateAmbulanceRequest is the admin payload for registering an ambulance.
type CreateAmbulanceRequest struct {
	VehicleNumber   string `json:"vehicle_number"`
	Driver          Driver `json:"driver"`
	Type            string `json:"type"`
	CurrentLocation string `json:"current_location"`
}

// Validate checks required fields.
func (r *CreateAmbulanceRequest) Validate() error {
	if strings.TrimSpace(r.VehicleNumber) == "" {
		return ErrVehicleNumberRequired
	}
	return nil
}
