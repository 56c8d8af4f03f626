package allowlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/crisis/models"
	"vigil/internal/platform/logger"
)

func TestSyncer_CheckEmergency(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{dataset: dataset("v1", "988lifeline.org")}
	cache := New(remote, nil, WithLogger(logger.Discard()))
	cache.Load(ctx)
	syncer := NewSyncer(cache, time.Hour, time.Minute, logger.Discard())

	t.Run("no emergency flag does nothing", func(t *testing.T) {
		remote.set(dataset("v2", "988lifeline.org"), nil)
		ran, err := syncer.CheckEmergency(ctx)
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, "v1", cache.Current().Dataset.Version)
	})

	t.Run("emergency on new version forces refresh", func(t *testing.T) {
		ds := dataset("v3", "988lifeline.org", "new-crisis-line.org")
		ds.Emergency = true
		remote.set(ds, nil)

		ran, err := syncer.CheckEmergency(ctx)
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Equal(t, "v3", cache.Current().Dataset.Version)
		assert.True(t, cache.Current().Matcher.MatchDomain("new-crisis-line.org"))
	})

	t.Run("emergency on active version is ignored", func(t *testing.T) {
		ran, err := syncer.CheckEmergency(ctx)
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("manifest failure is reported", func(t *testing.T) {
		remote.set(nil, errRemoteDown)
		_, err := syncer.CheckEmergency(ctx)
		assert.Error(t, err)
		assert.Equal(t, "v3", cache.Current().Dataset.Version)
	})
}

func TestSyncer_RunWithoutRemoteReturns(t *testing.T) {
	cache := New(nil, nil, WithLogger(logger.Discard()))
	done := make(chan struct{})
	go func() {
		NewSyncer(cache, time.Millisecond, time.Millisecond, logger.Discard()).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return without a remote")
	}
}

func TestBundledIsUsable(t *testing.T) {
	ds := Bundled()
	require.NoError(t, ds.Validate())
	assert.NotEqual(t, "baseline", ds.Version)
	assert.NoError(t, Baseline().Validate())
	assert.Equal(t, models.CategoryCrisis, ds.Entries[0].Category)
}
