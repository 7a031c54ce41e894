package allocation

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/errors"
	"github.com/medilink/platform/internal/shared/logging"
	"github.com/medilink/platform/internal/shared/metrics"
	"github.com/medilink/platform/internal/workflow"
)

// donorAlertThreshold is the stock level below which a donor alert is
// raised for a patient needing blood.
const donorAlertThreshold = 2

// Service orchestrates an allocation: pick the best-scored hospital,
// compute the ETA, and fire the best-effort notification side channels.
type Service struct {
	hospitals hospital.Store
	patients  patient.Store
	workflow  *workflow.Client
	log       zerolog.Logger
}

// NewService creates an allocation service
func NewService(hospitals hospital.Store, patients patient.Store, wf *workflow.Client) *Service {
	return &Service{
		hospitals: hospitals,
		patients:  patients,
		workflow:  wf,
		log:       logging.Component("allocation"),
	}
}

// Allocate runs a single allocation pass. Unknown patients fall back
// to the default demo patient; webhook failures degrade to canned
// responses and never abort the response.
func (s *Service) Allocate(ctx context.Context, req Request) (*Result, error) {
	r := req.resolve()

	p, err := s.patients.GetPatient(ctx, r.PatientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", r.PatientID).Msg("patient lookup failed, using default patient")
		p, err = s.patients.GetPatient(ctx, DefaultPatientID)
		if err != nil {
			return nil, errors.Wrap(err, "default patient unavailable")
		}
	}

	hospitals, err := s.hospitals.ListHospitals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hospitals")
	}
	if len(hospitals) == 0 {
		return nil, errors.Internal(errors.ErrNotFound)
	}

	ranked := Rank(hospitals, r.Latitude, r.Longitude, p.BloodType, r.Severity, r.NeedsBlood)
	best := ranked[0]

	result := &Result{
		Patient:           p.Public(),
		AllocatedHospital: best.Hospital,
		DistanceKm:        round1(best.DistanceKm),
		AllocationScore:   round1(best.Score),
		DonorDetails:      []workflow.Donor{},
		HospitalsNotified: []map[string]any{},
	}
	result.ETAMinutes = int(result.DistanceKm*2 + 3)

	if r.NeedsBlood && p.BloodType != "" {
		stock, _ := best.Hospital.BloodUnits(p.BloodType)
		if stock >= donorAlertThreshold {
			result.BloodAvailable = true
		} else {
			alert := s.workflow.DonorAlert(ctx, workflow.DonorAlertPayload{
				BloodType:    p.BloodType,
				HospitalLat:  best.Hospital.Latitude,
				HospitalLng:  best.Hospital.Longitude,
				HospitalName: best.Hospital.Name,
				PatientID:    p.ID,
				PatientName:  p.Name,
				Severity:     r.Severity,
				Latitude:     r.Latitude,
				Longitude:    r.Longitude,
			})
			result.DonorsAlerted = alert.DonorsNotified
			if alert.Donors != nil {
				result.DonorDetails = alert.Donors
			}
		}
	}

	if r.Severity == SeverityCritical {
		notify := s.workflow.EmergencyNotify(ctx, workflow.EmergencyPayload{
			Severity:        r.Severity,
			PatientID:       p.ID,
			PatientName:     p.Name,
			HospitalName:    best.Hospital.Name,
			Latitude:        r.Latitude,
			Longitude:       r.Longitude,
			AllocationScore: result.AllocationScore,
		})
		result.EmergencyNotified = notify.Notified
		if notify.Hospitals != nil {
			result.HospitalsNotified = notify.Hospitals
		}
	}

	metrics.RecordAllocation(r.Severity, best.Hospital.Name)
	s.log.Info().
		Str("patient_id", p.ID).
		Str("hospital", best.Hospital.Name).
		Float64("score", result.AllocationScore).
		Float64("distance_km", result.DistanceKm).
		Int("eta_minutes", result.ETAMinutes).
		Bool("blood_available", result.BloodAvailable).
		Msg("allocation completed")

	return result, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
