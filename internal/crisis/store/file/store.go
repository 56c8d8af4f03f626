// Package file persists the last-known allowlist as YAML on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vigil/internal/crisis/models"
	"vigil/pkg/platform/sentinel"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(_ context.Context) (*models.Dataset, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read allowlist cache: %w", err)
	}
	var ds models.Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: decode allowlist cache: %v", sentinel.ErrInvalidDataset, err)
	}
	return &ds, nil
}

// Save writes to a temp file in the same directory and renames it over the
// old one, so a crash never leaves a truncated cache behind.
func (s *Store) Save(_ context.Context, ds *models.Dataset) error {
	raw, err := yaml.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode allowlist cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".allowlist-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace allowlist cache: %w", err)
	}
	return nil
}
