package patient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/shared/errors"
	"github.com/medilink/platform/internal/shared/logging"
	"github.com/medilink/platform/internal/shared/metrics"
)

// RegisterRequest carries the fields accepted at registration. A
// descriptor of any length other than 128 is treated as absent.
type RegisterRequest struct {
	Name           string         `json:"name"`
	Age            int            `json:"age"`
	BloodType      string         `json:"blood_type"`
	Photo          string         `json:"photo"`
	MedicalHistory map[string]any `json:"medical_history"`
	FaceDescriptor []float64      `json:"face_descriptor"`
}

// RegisterResult reports the stored record and whether an existing
// demo identity was updated in place instead of a new record created.
type RegisterResult struct {
	Patient             *Patient
	Updated             bool
	SyntheticDescriptor bool
}

// Service handles patient registration, including the reserved
// demo-identity update-in-place path.
type Service struct {
	store    Store
	matching config.MatchingConfig
	log      zerolog.Logger
}

// NewService creates a registration service
func NewService(store Store, matching config.MatchingConfig) *Service {
	return &Service{
		store:    store,
		matching: matching,
		log:      logging.Component("patient.registration"),
	}
}

// Register stores a patient. Names matching a reserved demo identity
// update that record in place; everyone else gets a new record. When
// no valid descriptor is supplied a synthetic one is derived from the
// record id, so repeat registrations reproduce the same vector.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	name := req.Name
	if name == "" {
		name = "Unknown Patient"
	}
	age := req.Age
	if age <= 0 || age > 150 {
		age = 30
	}
	bloodType := req.BloodType
	if bloodType == "" {
		bloodType = "O+"
	}

	descriptor := req.FaceDescriptor
	synthetic := false
	if !ValidDescriptor(descriptor) {
		descriptor = nil
	}

	if demo := s.matching.MatchDemoName(name); demo != nil {
		return s.updateDemoPatient(ctx, demo, req, age, bloodType, descriptor)
	}

	if descriptor == nil {
		nextID, err := s.store.NextID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to reserve patient id")
		}
		descriptor = GenerateDescriptor(nextID)
		synthetic = true
	}

	p := &Patient{
		Name:           name,
		Age:            age,
		BloodType:      bloodType,
		Photo:          req.Photo,
		MedicalHistory: historyOrEmpty(req.MedicalHistory),
		FaceDescriptor: descriptor,
	}
	if err := s.store.CreatePatient(ctx, p); err != nil {
		return nil, errors.Wrap(err, "registration failed")
	}

	metrics.RecordRegistration("created")
	s.log.Info().Str("patient_id", p.ID).Str("name", p.Name).Bool("synthetic_descriptor", synthetic).
		Msg("patient registered")

	return &RegisterResult{Patient: p, SyntheticDescriptor: synthetic}, nil
}

// updateDemoPatient rewrites the reserved record instead of creating a
// duplicate. Only supplied fields overwrite existing ones.
func (s *Service) updateDemoPatient(ctx context.Context, demo *config.DemoIdentity, req RegisterRequest, age int, bloodType string, descriptor []float64) (*RegisterResult, error) {
	existing, err := s.store.GetPatient(ctx, demo.ID)
	if err != nil {
		return nil, errors.Wrap(err, "demo patient lookup failed")
	}

	existing.Age = age
	existing.BloodType = bloodType
	if req.Photo != "" {
		existing.Photo = req.Photo
	}
	if len(req.MedicalHistory) > 0 {
		existing.MedicalHistory = req.MedicalHistory
	}
	if descriptor != nil {
		existing.FaceDescriptor = descriptor
	}

	if err := s.store.UpdatePatient(ctx, existing); err != nil {
		return nil, errors.Wrap(err, "demo patient update failed")
	}

	metrics.RecordRegistration("updated")
	s.log.Info().Str("patient_id", existing.ID).Str("name", demo.Name).
		Msg("demo patient updated in place")

	return &RegisterResult{Patient: existing, Updated: true}, nil
}

func historyOrEmpty(h map[string]any) map[string]any {
	if h == nil {
		return map[string]any{}
	}
	return h
}
