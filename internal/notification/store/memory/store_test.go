package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

var base = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func item(g domain.GuardianID, flag domain.FlagID, dt models.DigestType, at time.Time) models.DigestItem {
	return models.DigestItem{
		ID:         uuid.New(),
		GuardianID: g,
		SubjectID:  "child-1",
		FlagID:     flag,
		EventKey:   flag.String(),
		Severity:   concern.SeverityMedium,
		DigestType: dt,
		QueuedAt:   at,
	}
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	require.NoError(t, s.AddGuardian(ctx, "fam-1", "g-1"))
	require.NoError(t, s.AddGuardian(ctx, "fam-1", "g-1"))
	require.NoError(t, s.AddGuardian(ctx, "fam-1", "g-2"))

	ids, err := s.ListGuardians(ctx, "fam-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.GuardianID{"g-1", "g-2"}, ids)

	_, err = s.FindPreference(ctx, "g-1")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.PutPreference(ctx, models.Preference{GuardianID: "g-1", MediumMode: "sometimes"})
	require.Error(t, err)

	require.NoError(t, s.PutPreference(ctx, models.Preference{GuardianID: "g-1", MediumMode: models.MediumDigest}))
	p, err := s.FindPreference(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediumDigest, p.MediumMode)
}

func TestPutPreferenceRejectsMalformedQuietHours(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	tests := []struct {
		name       string
		start, end string
	}{
		{"hour suffix and am", "22h", "7am"},
		{"out of range hour", "25:00", "07:00"},
		{"missing minutes", "22", "07:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.PutPreference(ctx, models.Preference{
				GuardianID:      "g-1",
				MediumMode:      models.MediumImmediate,
				QuietHoursStart: tc.start,
				QuietHoursEnd:   tc.end,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be HH:MM")
		})
	}

	_, err := s.FindPreference(ctx, "g-1")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.PutPreference(ctx, models.Preference{
		GuardianID:      "g-1",
		MediumMode:      models.MediumImmediate,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "07:00",
	}))
}

func TestDigestQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueue is idempotent per guardian flag and type", func(t *testing.T) {
		s := NewInMemory()
		flag := domain.NewFlagID()
		require.NoError(t, s.Enqueue(ctx, item("g-1", flag, models.DigestHourly, base)))
		require.NoError(t, s.Enqueue(ctx, item("g-1", flag, models.DigestHourly, base.Add(time.Minute))))
		require.NoError(t, s.Enqueue(ctx, item("g-1", flag, models.DigestDaily, base)))
		assert.Equal(t, 2, s.QueueLen())
	})

	t.Run("pending filters by type and cutoff oldest first", func(t *testing.T) {
		s := NewInMemory()
		late := item("g-1", domain.NewFlagID(), models.DigestHourly, base.Add(30*time.Minute))
		early := item("g-1", domain.NewFlagID(), models.DigestHourly, base)
		future := item("g-1", domain.NewFlagID(), models.DigestHourly, base.Add(2*time.Hour))
		daily := item("g-1", domain.NewFlagID(), models.DigestDaily, base)
		for _, it := range []models.DigestItem{late, early, future, daily} {
			require.NoError(t, s.Enqueue(ctx, it))
		}

		got, err := s.Pending(ctx, models.DigestHourly, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, early.ID, got[0].ID)
		assert.Equal(t, late.ID, got[1].ID)
	})

	t.Run("remove allows requeue", func(t *testing.T) {
		s := NewInMemory()
		it := item("g-1", domain.NewFlagID(), models.DigestHourly, base)
		require.NoError(t, s.Enqueue(ctx, it))
		require.NoError(t, s.Remove(ctx, []uuid.UUID{it.ID, uuid.New()}))
		assert.Equal(t, 0, s.QueueLen())

		it.ID = uuid.New()
		require.NoError(t, s.Enqueue(ctx, it))
		assert.Equal(t, 1, s.QueueLen())
	})
}

func TestSentFlags(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	sent, failed, other := domain.NewFlagID(), domain.NewFlagID(), domain.NewFlagID()

	require.NoError(t, s.Append(ctx,
		models.HistoryEntry{ID: uuid.New(), GuardianID: "g-1", FlagID: &sent, Kind: models.KindDigest, Status: models.StatusSent, SentAt: base},
		models.HistoryEntry{ID: uuid.New(), GuardianID: "g-1", FlagID: &failed, Kind: models.KindDigest, Status: models.StatusFailed, SentAt: base},
		models.HistoryEntry{ID: uuid.New(), GuardianID: "g-1", FlagID: &other, Kind: models.KindImmediate, Status: models.StatusSent, SentAt: base},
		models.HistoryEntry{ID: uuid.New(), GuardianID: "g-1", Kind: models.KindDigest, Status: models.StatusFailed, SentAt: base},
	))

	got, err := s.SentFlags(ctx, "g-1", models.KindDigest, []domain.FlagID{sent, failed, other})
	require.NoError(t, err)
	assert.Equal(t, map[domain.FlagID]bool{sent: true}, got)

	got, err = s.SentFlags(ctx, "g-2", models.KindDigest, []domain.FlagID{sent})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Len(t, s.History("g-1"), 4)
}

func TestPendingDeliveries(t *testing.T) {
	ctx := context.Background()
	s := NewPendingDeliveries()
	flag := domain.NewFlagID()

	first := models.PendingDelivery{ID: uuid.New(), GuardianID: "g-1", FlagID: flag, DeliverAt: base.Add(time.Hour)}
	require.NoError(t, s.Schedule(ctx, first))
	dup := first
	dup.ID = uuid.New()
	require.NoError(t, s.Schedule(ctx, dup))
	assert.Equal(t, 1, s.Len())

	due, err := s.Due(ctx, base)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = s.Due(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)

	require.NoError(t, s.Remove(ctx, first.ID))
	assert.Equal(t, 0, s.Len())
}
