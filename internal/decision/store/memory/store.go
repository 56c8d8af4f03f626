package memory

import (
	"context"
	"sort"
	"sync"

	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

// InMemoryFlagStore keeps flags in process. Used when no database is
// configured and in tests.
type InMemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[domain.FlagID]concern.Flag
}

func NewInMemoryFlagStore() *InMemoryFlagStore {
	return &InMemoryFlagStore{flags: make(map[domain.FlagID]concern.Flag)}
}

// Save inserts a flag. Flags are immutable; saving an existing id conflicts.
func (s *InMemoryFlagStore) Save(_ context.Context, flag *concern.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flags[flag.ID]; ok {
		return sentinel.ErrConflict
	}
	s.flags[flag.ID] = *flag
	return nil
}

func (s *InMemoryFlagStore) FindByID(_ context.Context, id domain.FlagID) (*concern.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &f, nil
}

// ListByFamily returns a family's flags, newest first.
func (s *InMemoryFlagStore) ListByFamily(_ context.Context, familyID domain.FamilyID) ([]concern.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []concern.Flag
	for _, f := range s.flags {
		if f.FamilyID == familyID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Count returns the number of stored flags.
func (s *InMemoryFlagStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}
