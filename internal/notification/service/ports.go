package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

// PreferenceReader reads guardian preferences owned by the settings
// service. FindPreference returns sentinel.ErrNotFound for a guardian who
// never saved one.
type PreferenceReader interface {
	ListGuardians(ctx context.Context, familyID domain.FamilyID) ([]domain.GuardianID, error)
	FindPreference(ctx context.Context, guardianID domain.GuardianID) (*models.Preference, error)
}

// DigestQueue is the durable queue between routing and the flush jobs.
// Enqueue ignores an item already queued for the same guardian, flag and
// digest type.
type DigestQueue interface {
	Enqueue(ctx context.Context, item models.DigestItem) error
	Pending(ctx context.Context, digestType models.DigestType, queuedBefore time.Time) ([]models.DigestItem, error)
	Remove(ctx context.Context, ids []uuid.UUID) error
}

// HistoryStore is the append-only delivery log.
type HistoryStore interface {
	Append(ctx context.Context, entries ...models.HistoryEntry) error
	// SentFlags returns which of flagIDs already have a sent entry of kind
	// for the guardian.
	SentFlags(ctx context.Context, guardianID domain.GuardianID, kind models.DeliveryKind, flagIDs []domain.FlagID) (map[domain.FlagID]bool, error)
}

// PendingStore holds deliveries deferred by quiet hours. Schedule ignores a
// delivery already pending for the same guardian and flag.
type PendingStore interface {
	Schedule(ctx context.Context, p models.PendingDelivery) error
	Due(ctx context.Context, now time.Time) ([]models.PendingDelivery, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// Sender is the push transport contract.
type Sender interface {
	Send(ctx context.Context, recipient domain.GuardianID, payload models.Payload) error
}
