package hospital

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/shared/logging"
)

// Store is the read surface the allocator and API depend on. Both the
// Postgres repository and the in-memory fallback satisfy it.
type Store interface {
	ListHospitals(ctx context.Context) ([]Hospital, error)
	GetHospital(ctx context.Context, id string) (*Hospital, error)
}

// FallbackStore reads from a primary store and degrades to the seeded
// in-memory set when the primary is missing or unreachable. A store
// outage must never fail an allocation.
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
		log:     logging.Component("hospital.store"),
	}
}

func (s *FallbackStore) ListHospitals(ctx context.Context) ([]Hospital, error) {
	if s.primary != nil {
		hospitals, err := s.primary.ListHospitals(ctx)
		if err == nil && len(hospitals) > 0 {
			return hospitals, nil
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("primary store unreachable, using in-memory hospitals")
		}
	}
	return s.memory.ListHospitals(ctx)
}

func (s *FallbackStore) GetHospital(ctx context.Context, id string) (*Hospital, error) {
	if s.primary != nil {
		h, err := s.primary.GetHospital(ctx, id)
		if err == nil {
			return h, nil
		}
		s.log.Warn().Err(err).Str("hospital_id", id).Msg("primary store lookup failed, trying in-memory")
	}
	return s.memory.GetHospital(ctx, id)
}
