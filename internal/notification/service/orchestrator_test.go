package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/internal/notification/sender"
	"vigil/internal/notification/service/mocks"
	"vigil/internal/notification/store/memory"
	"vigil/internal/platform/logger"
	"vigil/pkg/domain"
	"vigil/pkg/requestcontext"
)

// Justification for unit tests: routing is where one guardian's settings
// could leak into another's outcome, and where quiet hours and the critical
// override meet. Each guardian's result must depend on nothing but the
// flag, that guardian's preference and the clock.
type OrchestratorSuite struct {
	suite.Suite
	store   *memory.InMemory
	pending *memory.PendingDeliveries
	sender  *recordingSender
	orch    *Orchestrator
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

var lateEvening = time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)

func (s *OrchestratorSuite) SetupTest() {
	s.store = memory.NewInMemory()
	s.pending = memory.NewPendingDeliveries()
	s.sender = newRecordingSender()
	orch, err := NewOrchestrator(s.store, s.store, s.store, s.pending, s.sender,
		WithLogger(logger.Discard()),
		WithDeepLinkBase("https://app.example/"),
	)
	s.Require().NoError(err)
	s.orch = orch
}

func (s *OrchestratorSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *OrchestratorSuite) addGuardian(p models.Preference) {
	ctx := context.Background()
	s.Require().NoError(s.store.AddGuardian(ctx, "fam-1", p.GuardianID))
	s.Require().NoError(s.store.PutPreference(ctx, p))
}

func quietPref(g domain.GuardianID) models.Preference {
	return models.Preference{
		GuardianID:      g,
		FamilyID:        "fam-1",
		CriticalEnabled: true,
		MediumMode:      models.MediumImmediate,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "07:00",
	}
}

func byGuardian(ds []models.Delivery) map[domain.GuardianID]models.Delivery {
	out := make(map[domain.GuardianID]models.Delivery, len(ds))
	for _, d := range ds {
		out[d.GuardianID] = d
	}
	return out
}

func (s *OrchestratorSuite) TestQuietHours() {
	s.Run("medium immediate at 23:00 is deferred to 07:00", func() {
		s.SetupTest()
		s.addGuardian(quietPref("g-1"))

		ds, err := s.orch.RouteFamily(s.at(lateEvening), newFlag(concern.SeverityMedium))
		s.Require().NoError(err)
		s.Require().Len(ds, 1)
		s.Equal(models.OutcomeDeferred, ds[0].Outcome)
		s.True(ds[0].DeliverAt.Equal(time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)))
		s.Zero(s.sender.total())
		s.Equal(1, s.pending.Len())

		history := s.store.History("g-1")
		s.Require().Len(history, 1)
		s.Equal(models.StatusDeferred, history[0].Status)
	})

	s.Run("critical at 23:00 is sent immediately", func() {
		s.SetupTest()
		s.addGuardian(quietPref("g-1"))

		ds, err := s.orch.RouteFamily(s.at(lateEvening), newFlag(concern.SeverityCritical))
		s.Require().NoError(err)
		s.Require().Len(ds, 1)
		s.Equal(models.OutcomeSent, ds[0].Outcome)
		s.Require().Len(s.sender.to("g-1"), 1)
		s.Equal("Urgent activity alert", s.sender.to("g-1")[0].Title)
		s.Zero(s.pending.Len())
	})

	s.Run("medium immediate outside quiet hours is sent", func() {
		s.SetupTest()
		s.addGuardian(quietPref("g-1"))

		ds, err := s.orch.RouteFamily(s.at(lateEvening.Add(-3*time.Hour)), newFlag(concern.SeverityMedium))
		s.Require().NoError(err)
		s.Equal(models.OutcomeSent, ds[0].Outcome)
	})
}

func (s *OrchestratorSuite) TestThrottledSends() {
	daytime := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	throttled := func() {
		s.SetupTest()
		// 30/min gives a burst of three.
		orch, err := NewOrchestrator(s.store, s.store, s.store, s.pending, sender.NewRateLimited(s.sender, 30, nil),
			WithLogger(logger.Discard()),
		)
		s.Require().NoError(err)
		s.orch = orch
		s.addGuardian(models.Preference{GuardianID: "g-1", CriticalEnabled: true, MediumMode: models.MediumImmediate})
	}

	s.Run("critical alerts beyond the burst are all delivered", func() {
		throttled()
		for range 5 {
			ds, err := s.orch.RouteFamily(s.at(daytime), newFlag(concern.SeverityCritical))
			s.Require().NoError(err)
			s.Require().Len(ds, 1)
			s.Equal(models.OutcomeSent, ds[0].Outcome)
		}
		s.Len(s.sender.to("g-1"), 5)
		s.Zero(s.pending.Len())
		for _, h := range s.store.History("g-1") {
			s.Equal(models.StatusSent, h.Status)
		}
	})

	s.Run("medium alerts beyond the burst are deferred, not failed", func() {
		throttled()
		var outcomes []models.Outcome
		for range 5 {
			ds, err := s.orch.RouteFamily(s.at(daytime), newFlag(concern.SeverityMedium))
			s.Require().NoError(err)
			s.Require().Len(ds, 1)
			outcomes = append(outcomes, ds[0].Outcome)
			if ds[0].Outcome == models.OutcomeDeferred {
				s.True(ds[0].DeliverAt.Equal(daytime.Add(throttleRetryAfter)))
			}
		}
		s.Equal([]models.Outcome{
			models.OutcomeSent, models.OutcomeSent, models.OutcomeSent,
			models.OutcomeDeferred, models.OutcomeDeferred,
		}, outcomes)
		s.Len(s.sender.to("g-1"), 3)
		s.Equal(2, s.pending.Len())
		for _, h := range s.store.History("g-1") {
			s.NotEqual(models.StatusFailed, h.Status)
		}
	})
}

func (s *OrchestratorSuite) TestSeverityRouting() {
	tests := []struct {
		name     string
		pref     models.Preference
		severity concern.Severity
		outcome  models.Outcome
		digest   models.DigestType
	}{
		{
			name:     "critical disabled is skipped",
			pref:     models.Preference{GuardianID: "g-1", MediumMode: models.MediumDigest},
			severity: concern.SeverityCritical,
			outcome:  models.OutcomeSkipped,
		},
		{
			name:     "medium digest queues hourly",
			pref:     models.Preference{GuardianID: "g-1", MediumMode: models.MediumDigest},
			severity: concern.SeverityMedium,
			outcome:  models.OutcomeQueued,
			digest:   models.DigestHourly,
		},
		{
			name:     "low enabled queues daily",
			pref:     models.Preference{GuardianID: "g-1", MediumMode: models.MediumDigest, LowEnabled: true},
			severity: concern.SeverityLow,
			outcome:  models.OutcomeQueued,
			digest:   models.DigestDaily,
		},
		{
			name:     "low disabled is skipped",
			pref:     models.Preference{GuardianID: "g-1", MediumMode: models.MediumImmediate},
			severity: concern.SeverityLow,
			outcome:  models.OutcomeSkipped,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.addGuardian(tt.pref)

			ds, err := s.orch.RouteFamily(s.at(lateEvening), newFlag(tt.severity))
			s.Require().NoError(err)
			s.Require().Len(ds, 1)
			s.Equal(tt.outcome, ds[0].Outcome)
			s.Equal(tt.digest, ds[0].DigestType)
			s.Zero(s.sender.total())

			wantQueued := 0
			if tt.outcome == models.OutcomeQueued {
				wantQueued = 1
			}
			s.Equal(wantQueued, s.store.QueueLen())
		})
	}
}

func (s *OrchestratorSuite) TestMissingPreferenceNotifiesNothing() {
	ctx := context.Background()
	s.Require().NoError(s.store.AddGuardian(ctx, "fam-1", "g-1"))

	ds, err := s.orch.RouteFamily(s.at(lateEvening), newFlag(concern.SeverityCritical))
	s.Require().NoError(err)
	s.Require().Len(ds, 1)
	s.Equal(models.OutcomeSkipped, ds[0].Outcome)
	s.Zero(s.sender.total())
	s.Zero(s.store.QueueLen())
	s.Empty(s.store.History("g-1"))
}

func (s *OrchestratorSuite) TestGuardianIndependence() {
	flag := newFlag(concern.SeverityMedium)
	guardianA := models.Preference{GuardianID: "g-a", CriticalEnabled: true, MediumMode: models.MediumImmediate}

	variantsB := []models.Preference{
		{GuardianID: "g-b", MediumMode: models.MediumDigest},
		{GuardianID: "g-b", CriticalEnabled: true, MediumMode: models.MediumImmediate, QuietHoursStart: "00:00", QuietHoursEnd: "23:59"},
		{GuardianID: "g-b", MediumMode: models.MediumImmediate, LowEnabled: true, Timezone: "Asia/Tokyo"},
	}

	var baseline *models.Delivery
	for _, b := range variantsB {
		ds := s.orch.Route(s.at(lateEvening), flag, []models.Preference{guardianA, b})
		a := byGuardian(ds)["g-a"]
		if baseline == nil {
			baseline = &a
			continue
		}
		s.Equal(*baseline, a)
	}
	s.Equal(models.OutcomeSent, baseline.Outcome)
}

func (s *OrchestratorSuite) TestSendFailureIsIsolated() {
	s.addGuardian(models.Preference{GuardianID: "g-1", CriticalEnabled: true, MediumMode: models.MediumDigest})
	s.addGuardian(models.Preference{GuardianID: "g-2", CriticalEnabled: true, MediumMode: models.MediumDigest})
	s.sender.fail("g-2", true)

	err := s.orch.RouteFlag(s.at(lateEvening), newFlag(concern.SeverityCritical))
	s.Require().NoError(err)

	s.Len(s.sender.to("g-1"), 1)
	history := s.store.History("g-2")
	s.Require().Len(history, 1)
	s.Equal(models.StatusFailed, history[0].Status)
	s.Contains(history[0].Detail, "gateway unavailable")
}

func (s *OrchestratorSuite) TestImmediateIsNotResent() {
	s.addGuardian(models.Preference{GuardianID: "g-1", CriticalEnabled: true, MediumMode: models.MediumDigest})
	flag := newFlag(concern.SeverityCritical)

	s.Require().NoError(s.orch.RouteFlag(s.at(lateEvening), flag))
	s.Require().NoError(s.orch.RouteFlag(s.at(lateEvening), flag))

	s.Len(s.sender.to("g-1"), 1)
}

func (s *OrchestratorSuite) TestPayloadHidesCategory() {
	s.addGuardian(models.Preference{GuardianID: "g-1", CriticalEnabled: true, MediumMode: models.MediumDigest})
	flag := newFlag(concern.SeverityCritical)
	flag.Category = concern.CategoryGrooming

	s.Require().NoError(s.orch.RouteFlag(s.at(lateEvening), flag))

	sent := s.sender.to("g-1")
	s.Require().Len(sent, 1)
	s.Equal("https://app.example/flags/"+flag.ID.String(), sent[0].DeepLink)
	for _, text := range []string{sent[0].Title, sent[0].Body, sent[0].DeepLink} {
		s.NotContains(strings.ToLower(text), string(concern.CategoryGrooming))
	}
}

func TestOrchestrator_PreferenceLookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prefs := mocks.NewMockPreferenceReader(ctrl)
	store := memory.NewInMemory()
	sender := newRecordingSender()

	prefs.EXPECT().ListGuardians(gomock.Any(), domain.FamilyID("fam-1")).
		Return([]domain.GuardianID{"g-1", "g-2"}, nil)
	prefs.EXPECT().FindPreference(gomock.Any(), domain.GuardianID("g-1")).
		Return(&models.Preference{CriticalEnabled: true, MediumMode: models.MediumDigest}, nil)
	prefs.EXPECT().FindPreference(gomock.Any(), domain.GuardianID("g-2")).
		Return(nil, errors.New("settings service timeout"))

	orch, err := NewOrchestrator(prefs, store, store, memory.NewPendingDeliveries(), sender, WithLogger(logger.Discard()))
	require.NoError(t, err)

	ds, err := orch.RouteFamily(requestcontext.WithTime(context.Background(), lateEvening), newFlag(concern.SeverityCritical))
	require.NoError(t, err)

	got := byGuardian(ds)
	assert.Equal(t, models.OutcomeSent, got["g-1"].Outcome)
	assert.Equal(t, models.OutcomeFailed, got["g-2"].Outcome)
	assert.Len(t, sender.to("g-1"), 1)
	assert.Empty(t, sender.to("g-2"))
}

func TestOrchestrator_ListGuardiansFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prefs := mocks.NewMockPreferenceReader(ctrl)
	sender := mocks.NewMockSender(ctrl)
	store := memory.NewInMemory()

	prefs.EXPECT().ListGuardians(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	orch, err := NewOrchestrator(prefs, store, store, memory.NewPendingDeliveries(), sender, WithLogger(logger.Discard()))
	require.NoError(t, err)

	err = orch.RouteFlag(context.Background(), newFlag(concern.SeverityCritical))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list guardians")
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	store := memory.NewInMemory()
	_, err := NewOrchestrator(store, store, store, nil, newRecordingSender())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending store is required")
}
