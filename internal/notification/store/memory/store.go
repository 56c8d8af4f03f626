// Package memory is the in-process notification store used when no database
// is configured, and by tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

type queueKey struct {
	guardian   domain.GuardianID
	flag       domain.FlagID
	digestType models.DigestType
}

type pendingKey struct {
	guardian domain.GuardianID
	flag     domain.FlagID
}

// InMemory implements the preference, digest queue and history ports.
type InMemory struct {
	mu          sync.RWMutex
	guardians   map[domain.FamilyID][]domain.GuardianID
	preferences map[domain.GuardianID]models.Preference
	queue       map[uuid.UUID]models.DigestItem
	queued      map[queueKey]uuid.UUID
	history     []models.HistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		guardians:   make(map[domain.FamilyID][]domain.GuardianID),
		preferences: make(map[domain.GuardianID]models.Preference),
		queue:       make(map[uuid.UUID]models.DigestItem),
		queued:      make(map[queueKey]uuid.UUID),
	}
}

// ---- preferences

// AddGuardian links a guardian to a family. Linking twice is a no-op.
func (s *InMemory) AddGuardian(_ context.Context, familyID domain.FamilyID, guardianID domain.GuardianID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.guardians[familyID], guardianID) {
		s.guardians[familyID] = append(s.guardians[familyID], guardianID)
	}
	return nil
}

func (s *InMemory) PutPreference(_ context.Context, p models.Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[p.GuardianID] = p
	return nil
}

func (s *InMemory) ListGuardians(_ context.Context, familyID domain.FamilyID) ([]domain.GuardianID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.guardians[familyID]), nil
}

func (s *InMemory) FindPreference(_ context.Context, guardianID domain.GuardianID) (*models.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preferences[guardianID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// ---- digest queue

func (s *InMemory) Enqueue(_ context.Context, item models.DigestItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := queueKey{item.GuardianID, item.FlagID, item.DigestType}
	if _, exists := s.queued[key]; exists {
		return nil
	}
	s.queued[key] = item.ID
	s.queue[item.ID] = item
	return nil
}

// Pending returns items of digestType queued at or before queuedBefore,
// oldest first.
func (s *InMemory) Pending(_ context.Context, digestType models.DigestType, queuedBefore time.Time) ([]models.DigestItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DigestItem
	for _, item := range s.queue {
		if item.DigestType == digestType && !item.QueuedAt.After(queuedBefore) {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b models.DigestItem) int { return a.QueuedAt.Compare(b.QueuedAt) })
	return out, nil
}

func (s *InMemory) Remove(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		item, ok := s.queue[id]
		if !ok {
			continue
		}
		delete(s.queue, id)
		delete(s.queued, queueKey{item.GuardianID, item.FlagID, item.DigestType})
	}
	return nil
}

// QueueLen reports how many digest items are waiting.
func (s *InMemory) QueueLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queue)
}

// ---- history

func (s *InMemory) Append(_ context.Context, entries ...models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entries...)
	return nil
}

func (s *InMemory) SentFlags(_ context.Context, guardianID domain.GuardianID, kind models.DeliveryKind, flagIDs []domain.FlagID) (map[domain.FlagID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.FlagID]bool)
	for _, e := range s.history {
		if e.GuardianID != guardianID || e.Kind != kind || e.Status != models.StatusSent || e.FlagID == nil {
			continue
		}
		if slices.Contains(flagIDs, *e.FlagID) {
			out[*e.FlagID] = true
		}
	}
	return out, nil
}

// History returns a guardian's entries in append order.
func (s *InMemory) History(guardianID domain.GuardianID) []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HistoryEntry
	for _, e := range s.history {
		if e.GuardianID == guardianID {
			out = append(out, e)
		}
	}
	return out
}

// ---- pending deliveries

// PendingDeliveries holds quiet-hours deferrals.
type PendingDeliveries struct {
	mu      sync.RWMutex
	pending map[uuid.UUID]models.PendingDelivery
	keys    map[pendingKey]uuid.UUID
}

func NewPendingDeliveries() *PendingDeliveries {
	return &PendingDeliveries{
		pending: make(map[uuid.UUID]models.PendingDelivery),
		keys:    make(map[pendingKey]uuid.UUID),
	}
}

func (s *PendingDeliveries) Schedule(_ context.Context, p models.PendingDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pendingKey{p.GuardianID, p.FlagID}
	if _, exists := s.keys[key]; exists {
		return nil
	}
	s.keys[key] = p.ID
	s.pending[p.ID] = p
	return nil
}

// Due returns deliveries due at or before now, earliest first.
func (s *PendingDeliveries) Due(_ context.Context, now time.Time) ([]models.PendingDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PendingDelivery
	for _, p := range s.pending {
		if !p.DeliverAt.After(now) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.PendingDelivery) int { return a.DeliverAt.Compare(b.DeliverAt) })
	return out, nil
}

func (s *PendingDeliveries) Remove(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		delete(s.pending, id)
		delete(s.keys, pendingKey{p.GuardianID, p.FlagID})
	}
	return nil
}

func (s *PendingDeliveries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}
