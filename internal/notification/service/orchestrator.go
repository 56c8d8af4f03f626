package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
	"vigil/pkg/requestcontext"
)

const maxConcurrentGuardians = 8

// throttleRetryAfter is how long a throttled immediate send waits in the
// pending store before the releaser retries it.
const throttleRetryAfter = time.Minute

// Orchestrator routes a created flag to every guardian of its family. Each
// guardian is handled on its own: a lookup, queue or send failure for one
// never changes another's outcome.
type Orchestrator struct {
	common
	prefs   PreferenceReader
	queue   DigestQueue
	history HistoryStore
	pending PendingStore
	sender  Sender
}

func NewOrchestrator(prefs PreferenceReader, queue DigestQueue, history HistoryStore, pending PendingStore, sender Sender, opts ...Option) (*Orchestrator, error) {
	switch {
	case prefs == nil:
		return nil, errors.New("preference reader is required")
	case queue == nil:
		return nil, errors.New("digest queue is required")
	case history == nil:
		return nil, errors.New("history store is required")
	case pending == nil:
		return nil, errors.New("pending store is required")
	case sender == nil:
		return nil, errors.New("sender is required")
	}
	return &Orchestrator{
		common:  apply(opts),
		prefs:   prefs,
		queue:   queue,
		history: history,
		pending: pending,
		sender:  sender,
	}, nil
}

// RouteFlag resolves the family's guardians and routes to each. Only a
// failure to list guardians is returned; per-guardian failures are recorded
// in history.
func (o *Orchestrator) RouteFlag(ctx context.Context, flag concern.Flag) error {
	_, err := o.RouteFamily(ctx, flag)
	return err
}

// RouteFamily is RouteFlag returning the per-guardian outcomes.
func (o *Orchestrator) RouteFamily(ctx context.Context, flag concern.Flag) ([]models.Delivery, error) {
	ctx, span := o.tracer.Start(ctx, "notification.RouteFlag")
	defer span.End()

	guardians, err := o.prefs.ListGuardians(ctx, flag.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	span.SetAttributes(attribute.Int("notification.guardians", len(guardians)))

	now := requestcontext.Now(ctx)
	out := make([]models.Delivery, len(guardians))
	o.fanOut(len(guardians), func(i int) {
		out[i] = o.routeGuardian(ctx, flag, guardians[i], now)
	})
	return out, nil
}

// Route delivers flag to guardians whose preferences are already resolved.
func (o *Orchestrator) Route(ctx context.Context, flag concern.Flag, prefs []models.Preference) []models.Delivery {
	now := requestcontext.Now(ctx)
	out := make([]models.Delivery, len(prefs))
	o.fanOut(len(prefs), func(i int) {
		out[i] = o.deliver(ctx, flag, prefs[i], now)
	})
	return out
}

func (o *Orchestrator) fanOut(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentGuardians)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) routeGuardian(ctx context.Context, flag concern.Flag, guardianID domain.GuardianID, now time.Time) models.Delivery {
	pref, err := o.prefs.FindPreference(ctx, guardianID)
	if errors.Is(err, sentinel.ErrNotFound) {
		o.metrics.IncDelivery(models.OutcomeSkipped.String())
		return models.Skipped(guardianID)
	}
	if err != nil {
		o.logger.WarnContext(ctx, "guardian preference lookup failed",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
			"error", err,
		)
		o.record(ctx, guardianID, &flag.ID, models.KindImmediate, models.StatusFailed, "preference lookup failed", now)
		o.metrics.IncDelivery(models.OutcomeFailed.String())
		return models.Failed(guardianID, "preference lookup failed")
	}
	pref.GuardianID = guardianID
	return o.deliver(ctx, flag, *pref, now)
}

func (o *Orchestrator) deliver(ctx context.Context, flag concern.Flag, pref models.Preference, now time.Time) models.Delivery {
	var d models.Delivery
	plan := PlanDelivery(flag, &pref, now)
	switch plan.Action {
	case ActionImmediate:
		d = o.sendImmediate(ctx, flag, pref.GuardianID, now)
	case ActionDefer:
		d = o.deferDelivery(ctx, flag, pref.GuardianID, plan.DeliverAt, now)
	case ActionDigest:
		d = o.enqueue(ctx, flag, pref.GuardianID, plan.DigestType, now)
	default:
		d = models.Skipped(pref.GuardianID)
	}
	o.metrics.IncDelivery(d.Outcome.String())
	return d
}

func (o *Orchestrator) sendImmediate(ctx context.Context, flag concern.Flag, guardianID domain.GuardianID, now time.Time) models.Delivery {
	sent, err := o.history.SentFlags(ctx, guardianID, models.KindImmediate, []domain.FlagID{flag.ID})
	if err != nil {
		// A duplicate alert beats a missing one.
		o.logger.WarnContext(ctx, "delivery history lookup failed, sending anyway",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
			"error", err,
		)
	} else if sent[flag.ID] {
		return models.Sent(guardianID)
	}

	err = o.sender.Send(ctx, guardianID, flagPayload(o.deepLinkBase, flag))
	if errors.Is(err, models.ErrThrottled) {
		o.logger.InfoContext(ctx, "immediate notification throttled, deferring",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
		)
		return o.deferDelivery(ctx, flag, guardianID, now.Add(throttleRetryAfter), now)
	}
	if err != nil {
		o.logger.WarnContext(ctx, "immediate notification failed",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
			"error", err,
		)
		o.record(ctx, guardianID, &flag.ID, models.KindImmediate, models.StatusFailed, err.Error(), now)
		return models.Failed(guardianID, err.Error())
	}
	o.record(ctx, guardianID, &flag.ID, models.KindImmediate, models.StatusSent, "", now)
	return models.Sent(guardianID)
}

func (o *Orchestrator) deferDelivery(ctx context.Context, flag concern.Flag, guardianID domain.GuardianID, deliverAt, now time.Time) models.Delivery {
	err := o.pending.Schedule(ctx, models.PendingDelivery{
		ID:         uuid.New(),
		GuardianID: guardianID,
		FlagID:     flag.ID,
		DeliverAt:  deliverAt,
		Payload:    flagPayload(o.deepLinkBase, flag),
		CreatedAt:  now,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "failed to schedule deferred notification",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
			"error", err,
		)
		o.record(ctx, guardianID, &flag.ID, models.KindImmediate, models.StatusFailed, "schedule deferred delivery failed", now)
		return models.Failed(guardianID, "schedule deferred delivery failed")
	}
	o.record(ctx, guardianID, &flag.ID, models.KindImmediate, models.StatusDeferred, "until "+deliverAt.UTC().Format(time.RFC3339), now)
	return models.Deferred(guardianID, deliverAt)
}

func (o *Orchestrator) enqueue(ctx context.Context, flag concern.Flag, guardianID domain.GuardianID, digestType models.DigestType, now time.Time) models.Delivery {
	err := o.queue.Enqueue(ctx, models.DigestItem{
		ID:         uuid.New(),
		GuardianID: guardianID,
		SubjectID:  flag.SubjectID,
		FlagID:     flag.ID,
		EventKey:   flag.EventKey(),
		Severity:   flag.Severity,
		DigestType: digestType,
		QueuedAt:   now,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "failed to queue digest item",
			"guardian_id", guardianID,
			"flag_id", flag.ID,
			"digest_type", digestType,
			"error", err,
		)
		o.record(ctx, guardianID, &flag.ID, models.KindDigest, models.StatusFailed, "enqueue failed", now)
		return models.Failed(guardianID, "enqueue failed")
	}
	return models.Queued(guardianID, digestType)
}

// recordWith appends a history row. History is an audit aid; failing to
// write it never changes the delivery outcome.
func (c *common) recordWith(ctx context.Context, history HistoryStore, entry models.HistoryEntry) {
	if err := history.Append(ctx, entry); err != nil {
		c.logger.WarnContext(ctx, "failed to append notification history",
			"guardian_id", entry.GuardianID,
			"status", entry.Status,
			"error", err,
		)
	}
}

func (o *Orchestrator) record(ctx context.Context, guardianID domain.GuardianID, flagID *domain.FlagID, kind models.DeliveryKind, status models.DeliveryStatus, detail string, at time.Time) {
	o.recordWith(ctx, o.history, models.HistoryEntry{
		ID:         uuid.New(),
		GuardianID: guardianID,
		FlagID:     flagID,
		Kind:       kind,
		Status:     status,
		Detail:     detail,
		SentAt:     at,
	})
}
