package patient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/shared/logging"
)

// Store is the persistence surface shared by registration,
// identification and allocation. Both the Postgres repository and the
// in-memory fallback satisfy it.
type Store interface {
	ListPatients(ctx context.Context) ([]Patient, error)
	GetPatient(ctx context.Context, id string) (*Patient, error)
	FindByBloodType(ctx context.Context, bloodType string) (*Patient, error)
	CreatePatient(ctx context.Context, p *Patient) error
	UpdatePatient(ctx context.Context, p *Patient) error
	NextID(ctx context.Context) (string, error)
}

// FallbackStore prefers a primary store and degrades to the seeded
// in-memory set when the primary is missing or unreachable. Reads and
// writes both degrade; a store outage must never fail registration or
// identification.
type FallbackStore struct {
	primary Store
	memory  *MemoryStore
	log     zerolog.Logger
}

// NewFallbackStore wraps primary with an in-memory fallback. A nil
// primary yields a pure in-memory store.
func NewFallbackStore(primary Store) *FallbackStore {
	return &FallbackStore{
		primary: primary,
		memory:  NewMemoryStore(),
		log:     logging.Component("patient.store"),
	}
}

func (s *FallbackStore) ListPatients(ctx context.Context) ([]Patient, error) {
	if s.primary != nil {
		patients, err := s.primary.ListPatients(ctx)
		if err == nil && len(patients) > 0 {
			return patients, nil
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("primary store unreachable, using in-memory patients")
		}
	}
	return s.memory.ListPatients(ctx)
}

func (s *FallbackStore) GetPatient(ctx context.Context, id string) (*Patient, error) {
	if s.primary != nil {
		p, err := s.primary.GetPatient(ctx, id)
		if err == nil {
			return p, nil
		}
		s.log.Warn().Err(err).Str("patient_id", id).Msg("primary store lookup failed, trying in-memory")
	}
	return s.memory.GetPatient(ctx, id)
}

func (s *FallbackStore) FindByBloodType(ctx context.Context, bloodType string) (*Patient, error) {
	if s.primary != nil {
		p, err := s.primary.FindByBloodType(ctx, bloodType)
		if err == nil {
			return p, nil
		}
	}
	return s.memory.FindByBloodType(ctx, bloodType)
}

func (s *FallbackStore) CreatePatient(ctx context.Context, p *Patient) error {
	if s.primary != nil {
		err := s.primary.CreatePatient(ctx, p)
		if err == nil {
			return nil
		}
		s.log.Warn().Err(err).Msg("primary store create failed, writing to in-memory")
	}
	return s.memory.CreatePatient(ctx, p)
}

func (s *FallbackStore) UpdatePatient(ctx context.Context, p *Patient) error {
	if s.primary != nil {
		err := s.primary.UpdatePatient(ctx, p)
		if err == nil {
			return nil
		}
		s.log.Warn().Err(err).Str("patient_id", p.ID).Msg("primary store update failed, writing to in-memory")
	}
	return s.memory.UpdatePatient(ctx, p)
}

func (s *FallbackStore) NextID(ctx context.Context) (string, error) {
	if s.primary != nil {
		id, err := s.primary.NextID(ctx)
		if err == nil {
			return id, nil
		}
	}
	return s.memory.NextID(ctx)
}
