package patient

import (
	"context"
	"strconv"
	"sync"

	"github.com/medilink/platform/internal/shared/errors"
)

// MemoryStore is a mutex-guarded in-memory patient set seeded with the
// demo dataset. Record writes are applied atomically under the lock.
type MemoryStore struct {
	mu       sync.RWMutex
	patients []Patient
}

// NewMemoryStore returns a store pre-populated with the seed set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{patients: SeedSet()}
}

func (s *MemoryStore) ListPatients(_ context.Context) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Patient, len(s.patients))
	copy(out, s.patients)
	return out, nil
}

func (s *MemoryStore) GetPatient(_ context.Context, id string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.patients {
		if s.patients[i].ID == id {
			p := s.patients[i]
			return &p, nil
		}
	}
	return nil, errors.NotFound("patient", id)
}

func (s *MemoryStore) FindByBloodType(_ context.Context, bloodType string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.patients {
		if s.patients[i].BloodType == bloodType {
			p := s.patients[i]
			return &p, nil
		}
	}
	return nil, errors.NotFound("patient", bloodType)
}

func (s *MemoryStore) CreatePatient(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = strconv.Itoa(s.maxIDLocked() + 1)
	}
	s.patients = append(s.patients, *p)
	return nil
}

func (s *MemoryStore) UpdatePatient(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patients {
		if s.patients[i].ID == p.ID {
			s.patients[i] = *p
			return nil
		}
	}
	return errors.NotFound("patient", p.ID)
}

func (s *MemoryStore) NextID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strconv.Itoa(s.maxIDLocked() + 1), nil
}

func (s *MemoryStore) maxIDLocked() int {
	max := 0
	for i := range s.patients {
		if n, err := strconv.Atoi(s.patients[i].ID); err == nil && n > max {
			max = n
		}
	}
	return max
}
