package allocation

import (
	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/workflow"
)

// Demo defaults applied to absent allocation request fields. The
// coordinates are central Dubai.
const (
	DefaultPatientID = "1"
	DefaultLatitude  = 25.1972
	DefaultLongitude = 55.2796
	DefaultSeverity  = SeverityCritical
)

// Request is an allocation request. Pointer fields distinguish absent
// values from explicit zeroes so defaults only fill true gaps.
type Request struct {
	PatientID  string   `json:"patient_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Severity   string   `json:"severity"`
	NeedsBlood *bool    `json:"needs_blood"`
}

// resolved is a Request with all defaults applied.
type resolved struct {
	PatientID  string
	Latitude   float64
	Longitude  float64
	Severity   string
	NeedsBlood bool
}

func (r Request) resolve() resolved {
	out := resolved{
		PatientID:  r.PatientID,
		Latitude:   DefaultLatitude,
		Longitude:  DefaultLongitude,
		Severity:   r.Severity,
		NeedsBlood: true,
	}
	if out.PatientID == "" {
		out.PatientID = DefaultPatientID
	}
	if r.Latitude != nil {
		out.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		out.Longitude = *r.Longitude
	}
	if out.Severity == "" {
		out.Severity = DefaultSeverity
	}
	if r.NeedsBlood != nil {
		out.NeedsBlood = *r.NeedsBlood
	}
	return out
}

// Result is the allocation snapshot returned to the caller. It is
// derived per request and never persisted.
type Result struct {
	Patient           patient.Patient   `json:"patient"`
	AllocatedHospital hospital.Hospital `json:"allocated_hospital"`
	DistanceKm        float64           `json:"distance_km"`
	AllocationScore   float64           `json:"allocation_score"`
	ETAMinutes        int               `json:"eta_minutes"`
	BloodAvailable    bool              `json:"blood_available"`
	DonorsAlerted     int               `json:"donors_alerted"`
	DonorDetails      []workflow.Donor  `json:"donor_details"`
	EmergencyNotified bool              `json:"emergency_notified"`
	HospitalsNotified []map[string]any  `json:"hospitals_notified"`
}
