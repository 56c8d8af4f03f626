// Package memory is the in-process calibration store used when no database
// is configured, and by tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

type approvalKey struct {
	subject  domain.SubjectID
	app      string
	category concern.Category
}

type profileKey struct {
	family   domain.FamilyID
	category concern.Category
}

// InMemory implements the calibration read ports and ProfileStore.
type InMemory struct {
	mu          sync.RWMutex
	sensitivity map[domain.FamilyID]models.FamilySensitivityConfig
	approvals   map[approvalKey]models.AppApprovalRecord
	profiles    map[profileKey]models.FamilyBiasProfile
}

func NewInMemory() *InMemory {
	return &InMemory{
		sensitivity: make(map[domain.FamilyID]models.FamilySensitivityConfig),
		approvals:   make(map[approvalKey]models.AppApprovalRecord),
		profiles:    make(map[profileKey]models.FamilyBiasProfile),
	}
}

// PutSensitivity replaces a family's config. Validated like any boundary input.
func (s *InMemory) PutSensitivity(_ context.Context, cfg models.FamilySensitivityConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.CategoryOverrides = maps.Clone(cfg.CategoryOverrides)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensitivity[cfg.FamilyID] = cfg
	return nil
}

func (s *InMemory) FindSensitivity(_ context.Context, familyID domain.FamilyID) (*models.FamilySensitivityConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.sensitivity[familyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cfg.CategoryOverrides = maps.Clone(cfg.CategoryOverrides)
	return &cfg, nil
}

func (s *InMemory) PutApproval(_ context.Context, rec models.AppApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approvalKey{rec.SubjectID, rec.AppIdentifier, rec.Category}] = rec
	return nil
}

func (s *InMemory) FindApproval(_ context.Context, subjectID domain.SubjectID, appIdentifier string, category concern.Category) (*models.AppApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.approvals[approvalKey{subjectID, appIdentifier, category}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *InMemory) FindProfile(_ context.Context, familyID domain.FamilyID, category concern.Category) (*models.FamilyBiasProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileKey{familyID, category}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) UpdateProfile(_ context.Context, familyID domain.FamilyID, category concern.Category, fn func(*models.FamilyBiasProfile) error) (*models.FamilyBiasProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := profileKey{familyID, category}
	p, ok := s.profiles[key]
	if !ok {
		p = models.FamilyBiasProfile{FamilyID: familyID, Category: category}
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	s.profiles[key] = p
	return &p, nil
}
