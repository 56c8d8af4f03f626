package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/internal/notification/store/memory"
	"vigil/internal/platform/logger"
	"vigil/pkg/requestcontext"
)

func TestReleaser(t *testing.T) {
	morning := time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*Orchestrator, *Releaser, *memory.InMemory, *memory.PendingDeliveries, *recordingSender) {
		t.Helper()
		store := memory.NewInMemory()
		pending := memory.NewPendingDeliveries()
		sender := newRecordingSender()
		orch, err := NewOrchestrator(store, store, store, pending, sender, WithLogger(logger.Discard()))
		require.NoError(t, err)
		rel, err := NewReleaser(pending, store, sender, WithLogger(logger.Discard()))
		require.NoError(t, err)

		require.NoError(t, store.AddGuardian(context.Background(), "fam-1", "g-1"))
		require.NoError(t, store.PutPreference(context.Background(), quietPref("g-1")))
		return orch, rel, store, pending, sender
	}

	t.Run("deferred delivery goes out when quiet hours end", func(t *testing.T) {
		orch, rel, store, pending, sender := setup(t)
		require.NoError(t, orch.RouteFlag(requestcontext.WithTime(context.Background(), lateEvening), newFlag(concern.SeverityMedium)))

		n, err := rel.ReleaseDue(requestcontext.WithTime(context.Background(), morning.Add(-time.Minute)))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, sender.total())

		n, err = rel.ReleaseDue(requestcontext.WithTime(context.Background(), morning))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, sender.to("g-1"), 1)
		assert.Zero(t, pending.Len())

		history := store.History("g-1")
		require.Len(t, history, 2)
		assert.Equal(t, models.StatusDeferred, history[0].Status)
		assert.Equal(t, models.StatusSent, history[1].Status)
	})

	t.Run("failed release stays pending for the next run", func(t *testing.T) {
		orch, rel, _, pending, sender := setup(t)
		require.NoError(t, orch.RouteFlag(requestcontext.WithTime(context.Background(), lateEvening), newFlag(concern.SeverityMedium)))
		sender.fail("g-1", true)

		n, err := rel.ReleaseDue(requestcontext.WithTime(context.Background(), morning))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 1, pending.Len())

		sender.fail("g-1", false)
		n, err = rel.ReleaseDue(requestcontext.WithTime(context.Background(), morning.Add(time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Zero(t, pending.Len())
	})

	t.Run("already delivered flag is dropped without resending", func(t *testing.T) {
		orch, rel, store, pending, sender := setup(t)
		flag := newFlag(concern.SeverityMedium)
		require.NoError(t, orch.RouteFlag(requestcontext.WithTime(context.Background(), lateEvening), flag))

		// the guardian left quiet hours and the same flag was routed again
		p := quietPref("g-1")
		p.QuietHoursStart, p.QuietHoursEnd = "", ""
		require.NoError(t, store.PutPreference(context.Background(), p))
		require.NoError(t, orch.RouteFlag(requestcontext.WithTime(context.Background(), lateEvening), flag))
		require.Len(t, sender.to("g-1"), 1)

		n, err := rel.ReleaseDue(requestcontext.WithTime(context.Background(), morning))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, sender.to("g-1"), 1)
		assert.Zero(t, pending.Len())
	})
}

func TestNextDailyRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 16, 5, 30, 0, 0, time.UTC),
			hour: 8,
			want: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the hour rolls to tomorrow",
			now:  time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
			hour: 8,
			want: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "non-UTC input is normalized",
			now:  time.Date(2026, 12, 31, 23, 0, 0, 0, time.FixedZone("UTC-2", -2*3600)),
			hour: 0,
			want: time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextDailyRun(tt.now, tt.hour)), "got %s", NextDailyRun(tt.now, tt.hour))
		})
	}
}
