package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	"vigil/pkg/requestcontext"
)

// Releaser sends deliveries that quiet hours held back, once they are due.
// A failed send stays pending and is retried on the next run.
type Releaser struct {
	common
	pending PendingStore
	history HistoryStore
	sender  Sender
}

func NewReleaser(pending PendingStore, history HistoryStore, sender Sender, opts ...Option) (*Releaser, error) {
	switch {
	case pending == nil:
		return nil, errors.New("pending store is required")
	case history == nil:
		return nil, errors.New("history store is required")
	case sender == nil:
		return nil, errors.New("sender is required")
	}
	return &Releaser{common: apply(opts), pending: pending, history: history, sender: sender}, nil
}

// ReleaseDue sends every pending delivery due at or before now. It returns
// how many were sent.
func (r *Releaser) ReleaseDue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	due, err := r.pending.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load due deliveries: %w", err)
	}

	released := 0
	for _, p := range due {
		sent, err := r.history.SentFlags(ctx, p.GuardianID, models.KindImmediate, []domain.FlagID{p.FlagID})
		if err == nil && sent[p.FlagID] {
			r.remove(ctx, p)
			r.metrics.IncReleased("duplicate")
			continue
		}

		if err := r.sender.Send(ctx, p.GuardianID, p.Payload); err != nil {
			r.logger.WarnContext(ctx, "deferred notification failed, will retry",
				"guardian_id", p.GuardianID,
				"flag_id", p.FlagID,
				"error", err,
			)
			r.record(ctx, p, models.StatusFailed, err.Error())
			r.metrics.IncReleased("failed")
			continue
		}
		r.record(ctx, p, models.StatusSent, "released")
		r.remove(ctx, p)
		r.metrics.IncReleased("sent")
		released++
	}
	return released, nil
}

func (r *Releaser) record(ctx context.Context, p models.PendingDelivery, status models.DeliveryStatus, detail string) {
	flagID := p.FlagID
	r.recordWith(ctx, r.history, models.HistoryEntry{
		ID:         uuid.New(),
		GuardianID: p.GuardianID,
		FlagID:     &flagID,
		Kind:       models.KindImmediate,
		Status:     status,
		Detail:     detail,
		SentAt:     requestcontext.Now(ctx),
	})
}

func (r *Releaser) remove(ctx context.Context, p models.PendingDelivery) {
	if err := r.pending.Remove(ctx, p.ID); err != nil {
		r.logger.WarnContext(ctx, "failed to remove released delivery",
			"guardian_id", p.GuardianID,
			"flag_id", p.FlagID,
			"error", err,
		)
	}
}
