package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/crisis/models"
	"vigil/pkg/platform/sentinel"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "allowlist.yaml")
	store := New(path)

	t.Run("missing file is not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		ds := &models.Dataset{
			Version:     "2026.10.1",
			Emergency:   true,
			Entries:     []models.Entry{{Pattern: "988lifeline.org", Category: models.CategoryCrisis}},
			SafeDomains: []string{"google.com"},
		}
		require.NoError(t, store.Save(ctx, ds))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, ds, got)

		leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".allowlist-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("corrupt file is invalid dataset", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("version: [unterminated"), 0o600))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, sentinel.ErrInvalidDataset)
	})
}
