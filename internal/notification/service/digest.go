package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	pstrings "vigil/pkg/platform/strings"
	"vigil/pkg/requestcontext"
)

// DigestManager flushes the digest queue. Both flushes are idempotent: a
// group is removed from the queue only after its send is recorded as sent,
// and items already recorded as sent are cleared without sending again.
type DigestManager struct {
	common
	queue      DigestQueue
	history    HistoryStore
	sender     Sender
	staleAfter time.Duration

	// serializes flushes within this process
	mu sync.Mutex
}

func NewDigestManager(queue DigestQueue, history HistoryStore, sender Sender, staleHourlyAfter time.Duration, opts ...Option) (*DigestManager, error) {
	switch {
	case queue == nil:
		return nil, errors.New("digest queue is required")
	case history == nil:
		return nil, errors.New("history store is required")
	case sender == nil:
		return nil, errors.New("sender is required")
	}
	return &DigestManager{
		common:     apply(opts),
		queue:      queue,
		history:    history,
		sender:     sender,
		staleAfter: staleHourlyAfter,
	}, nil
}

// FlushHourly sends every queued hourly item.
func (m *DigestManager) FlushHourly(ctx context.Context) (models.FlushReport, error) {
	now := requestcontext.Now(ctx)
	items, err := m.queue.Pending(ctx, models.DigestHourly, now)
	if err != nil {
		return models.FlushReport{}, fmt.Errorf("load hourly digest queue: %w", err)
	}
	return m.flush(ctx, models.DigestHourly, items, now), nil
}

// FlushDaily sends every queued daily item and sweeps up hourly items that
// have been waiting longer than the stale threshold.
func (m *DigestManager) FlushDaily(ctx context.Context) (models.FlushReport, error) {
	now := requestcontext.Now(ctx)
	items, err := m.queue.Pending(ctx, models.DigestDaily, now)
	if err != nil {
		return models.FlushReport{}, fmt.Errorf("load daily digest queue: %w", err)
	}
	stale, err := m.queue.Pending(ctx, models.DigestHourly, now.Add(-m.staleAfter))
	if err != nil {
		return models.FlushReport{}, fmt.Errorf("load stale hourly items: %w", err)
	}
	if len(stale) > 0 {
		m.logger.InfoContext(ctx, "daily digest absorbing unsent hourly items", "items", len(stale))
	}
	return m.flush(ctx, models.DigestDaily, append(items, stale...), now), nil
}

type groupKey struct {
	guardian domain.GuardianID
	subject  domain.SubjectID
}

func (m *DigestManager) flush(ctx context.Context, digestType models.DigestType, items []models.DigestItem, now time.Time) models.FlushReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, "notification.FlushDigest")
	defer span.End()
	span.SetAttributes(
		attribute.String("digest.type", string(digestType)),
		attribute.Int("digest.items", len(items)),
	)

	groups := groupItems(items)
	results := make([]string, len(groups))

	var g errgroup.Group
	g.SetLimit(maxConcurrentGuardians)
	for i, group := range groups {
		g.Go(func() error {
			results[i] = m.flushGroup(ctx, digestType, group, now)
			return nil
		})
	}
	_ = g.Wait()

	report := models.FlushReport{Groups: len(groups)}
	for _, r := range results {
		switch r {
		case resultSent:
			report.Sent++
		case resultFailed:
			report.Failed++
		case resultCleared:
			report.Cleared++
		}
		m.metrics.IncDigestGroup(string(digestType), r)
	}
	m.logger.InfoContext(ctx, "digest flush complete",
		"digest_type", digestType,
		"groups", report.Groups,
		"sent", report.Sent,
		"failed", report.Failed,
		"cleared", report.Cleared,
	)
	return report
}

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultCleared = "cleared"
)

// groupItems groups by guardian and subject, in queue order.
func groupItems(items []models.DigestItem) [][]models.DigestItem {
	sorted := append([]models.DigestItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QueuedAt.Before(sorted[j].QueuedAt) })

	index := make(map[groupKey]int)
	var groups [][]models.DigestItem
	for _, it := range sorted {
		k := groupKey{it.GuardianID, it.SubjectID}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], it)
	}
	return groups
}

func (m *DigestManager) flushGroup(ctx context.Context, digestType models.DigestType, group []models.DigestItem, now time.Time) string {
	guardianID := group[0].GuardianID
	subjectID := group[0].SubjectID

	flagIDs := make([]domain.FlagID, len(group))
	ids := make([]uuid.UUID, len(group))
	for i, it := range group {
		flagIDs[i] = it.FlagID
		ids[i] = it.ID
	}

	sent, err := m.history.SentFlags(ctx, guardianID, models.KindDigest, flagIDs)
	if err != nil {
		// Without history we cannot rule out a resend; leave the group queued.
		m.logger.WarnContext(ctx, "digest history lookup failed, group left queued",
			"guardian_id", guardianID,
			"error", err,
		)
		return resultFailed
	}

	var unsent []models.DigestItem
	for _, it := range group {
		if !sent[it.FlagID] {
			unsent = append(unsent, it)
		}
	}
	if len(unsent) == 0 {
		m.remove(ctx, guardianID, ids)
		return resultCleared
	}

	keys := make([]string, len(unsent))
	highest := concern.SeverityUnspecified
	for i, it := range unsent {
		keys[i] = it.EventKey
		highest = concern.Max(highest, it.Severity)
	}
	events := pstrings.DedupeBy(keys, nil)

	payload := digestPayload(m.deepLinkBase, subjectID, len(events), highest)
	if err := m.sender.Send(ctx, guardianID, payload); err != nil {
		m.logger.WarnContext(ctx, "digest send failed, group left queued",
			"guardian_id", guardianID,
			"digest_type", digestType,
			"items", len(unsent),
			"error", err,
		)
		m.recordWith(ctx, m.history, models.HistoryEntry{
			ID:         uuid.New(),
			GuardianID: guardianID,
			Kind:       models.KindDigest,
			Status:     models.StatusFailed,
			Detail:     fmt.Sprintf("%s digest: %v", digestType, err),
			SentAt:     now,
		})
		return resultFailed
	}

	entries := make([]models.HistoryEntry, len(unsent))
	for i, it := range unsent {
		flagID := it.FlagID
		entries[i] = models.HistoryEntry{
			ID:         uuid.New(),
			GuardianID: guardianID,
			FlagID:     &flagID,
			Kind:       models.KindDigest,
			Status:     models.StatusSent,
			Detail:     string(digestType) + " digest",
			SentAt:     now,
		}
	}
	// History first: if removal fails the next flush sees these as sent and
	// clears them instead of sending twice.
	if err := m.history.Append(ctx, entries...); err != nil {
		m.logger.ErrorContext(ctx, "digest sent but history write failed",
			"guardian_id", guardianID,
			"error", err,
		)
		return resultSent
	}
	m.remove(ctx, guardianID, ids)
	return resultSent
}

func (m *DigestManager) remove(ctx context.Context, guardianID domain.GuardianID, ids []uuid.UUID) {
	if err := m.queue.Remove(ctx, ids); err != nil {
		m.logger.WarnContext(ctx, "failed to remove flushed digest items",
			"guardian_id", guardianID,
			"items", len(ids),
			"error", err,
		)
	}
}
