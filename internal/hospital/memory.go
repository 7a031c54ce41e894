package hospital

import (
	"context"
	"sync"

	"github.com/medilink/platform/internal/shared/errors"
)

// MemoryStore is a mutex-guarded in-memory hospital set seeded with
// the demo dataset. It backs offline operation and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	hospitals []Hospital
}

// NewMemoryStore returns a store pre-populated with the seed set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hospitals: SeedSet()}
}

func (s *MemoryStore) ListHospitals(_ context.Context) ([]Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Hospital, len(s.hospitals))
	copy(out, s.hospitals)
	return out, nil
}

func (s *MemoryStore) GetHospital(_ context.Context, id string) (*Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.hospitals {
		if s.hospitals[i].ID == id {
			h := s.hospitals[i]
			return &h, nil
		}
	}
	return nil, errors.NotFound("hospital", id)
}
