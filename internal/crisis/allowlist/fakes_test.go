package allowlist

import (
	"context"
	"errors"
	"sync"

	"vigil/internal/crisis/models"
	"vigil/pkg/platform/sentinel"
)

type fakeRemote struct {
	mu       sync.Mutex
	dataset  *models.Dataset
	manifest *models.Manifest
	err      error
	fetches  int
}

func (f *fakeRemote) set(ds *models.Dataset, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataset, f.err = ds, err
}

func (f *fakeRemote) Fetch(context.Context) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.dataset, nil
}

func (f *fakeRemote) Manifest(context.Context) (*models.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.manifest != nil {
		return f.manifest, nil
	}
	return &models.Manifest{Version: f.dataset.Version, Emergency: f.dataset.Emergency}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	dataset *models.Dataset
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeStore) Load(context.Context) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.dataset == nil {
		return nil, sentinel.ErrNotFound
	}
	return f.dataset, nil
}

func (f *fakeStore) Save(_ context.Context, ds *models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.dataset = ds
	return nil
}

var errRemoteDown = errors.New("connection refused")

func dataset(version string, patterns ...string) *models.Dataset {
	ds := &models.Dataset{Version: version}
	for _, p := range patterns {
		ds.Entries = append(ds.Entries, models.Entry{Pattern: p, Category: models.CategoryCrisis})
	}
	return ds
}
