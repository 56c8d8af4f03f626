// Package redis persists the last-known allowlist in Redis so every replica
// shares one cache tier.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"vigil/internal/crisis/models"
	"vigil/pkg/platform/sentinel"
)

type Store struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) Load(ctx context.Context) (*models.Dataset, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get allowlist cache: %w", err)
	}
	var ds models.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: decode allowlist cache: %v", sentinel.ErrInvalidDataset, err)
	}
	return &ds, nil
}

// Save stores the dataset without expiry; a stale list beats none.
func (s *Store) Save(ctx context.Context, ds *models.Dataset) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode allowlist cache: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set allowlist cache: %w", err)
	}
	return nil
}
