// Package postgres persists the digest queue, delivery history and deferred
// deliveries, and reads guardian preferences owned by the settings service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ListGuardians(ctx context.Context, familyID domain.FamilyID) ([]domain.GuardianID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT guardian_id FROM family_guardians WHERE family_id = $1 ORDER BY guardian_id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("query family guardians: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect family guardians: %w", err)
	}
	out := make([]domain.GuardianID, len(ids))
	for i, id := range ids {
		out[i] = domain.GuardianID(id)
	}
	return out, nil
}

func (s *PostgresStore) FindPreference(ctx context.Context, guardianID domain.GuardianID) (*models.Preference, error) {
	p := &models.Preference{GuardianID: guardianID}
	var (
		familyID string
		mode     string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(fg.family_id, ''), gp.critical_enabled, gp.medium_mode, gp.low_enabled,
		       gp.quiet_hours_start, gp.quiet_hours_end, gp.timezone
		FROM guardian_preferences gp
		LEFT JOIN family_guardians fg ON fg.guardian_id = gp.guardian_id
		WHERE gp.guardian_id = $1
		LIMIT 1`, guardianID,
	).Scan(&familyID, &p.CriticalEnabled, &mode, &p.LowEnabled, &p.QuietHoursStart, &p.QuietHoursEnd, &p.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query guardian preference: %w", err)
	}
	p.FamilyID = domain.FamilyID(familyID)
	p.MediumMode = models.MediumMode(mode)
	return p, nil
}

// AddGuardian links a guardian to a family. Used by seeding and tests.
func (s *PostgresStore) AddGuardian(ctx context.Context, familyID domain.FamilyID, guardianID domain.GuardianID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO family_guardians (family_id, guardian_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, familyID, guardianID)
	if err != nil {
		return fmt.Errorf("insert family guardian: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutPreference(ctx context.Context, p models.Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guardian_preferences
			(guardian_id, critical_enabled, medium_mode, low_enabled, quiet_hours_start, quiet_hours_end, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (guardian_id) DO UPDATE SET
			critical_enabled = EXCLUDED.critical_enabled,
			medium_mode = EXCLUDED.medium_mode,
			low_enabled = EXCLUDED.low_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			timezone = EXCLUDED.timezone`,
		p.GuardianID, p.CriticalEnabled, string(p.MediumMode), p.LowEnabled,
		p.QuietHoursStart, p.QuietHoursEnd, p.Timezone)
	if err != nil {
		return fmt.Errorf("upsert guardian preference: %w", err)
	}
	return nil
}

func (s *PostgresStore) Enqueue(ctx context.Context, item models.DigestItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO digest_queue (id, guardian_id, subject_id, flag_id, event_key, severity, digest_type, queued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guardian_id, flag_id, digest_type) DO NOTHING`,
		item.ID, item.GuardianID, item.SubjectID, uuid.UUID(item.FlagID), item.EventKey,
		item.Severity.String(), string(item.DigestType), item.QueuedAt)
	if err != nil {
		return fmt.Errorf("enqueue digest item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Pending(ctx context.Context, digestType models.DigestType, queuedBefore time.Time) ([]models.DigestItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guardian_id, subject_id, flag_id, event_key, severity, digest_type, queued_at
		FROM digest_queue
		WHERE digest_type = $1 AND queued_at <= $2
		ORDER BY queued_at`, string(digestType), queuedBefore)
	if err != nil {
		return nil, fmt.Errorf("query digest queue: %w", err)
	}
	defer rows.Close()

	var out []models.DigestItem
	for rows.Next() {
		var (
			item       models.DigestItem
			guardianID string
			subjectID  string
			flagID     uuid.UUID
			severity   string
			dt         string
		)
		if err := rows.Scan(&item.ID, &guardianID, &subjectID, &flagID, &item.EventKey, &severity, &dt, &item.QueuedAt); err != nil {
			return nil, fmt.Errorf("scan digest item: %w", err)
		}
		sev, err := concern.ParseSeverity(severity)
		if err != nil {
			return nil, fmt.Errorf("digest item %s: %w", item.ID, err)
		}
		item.GuardianID = domain.GuardianID(guardianID)
		item.SubjectID = domain.SubjectID(subjectID)
		item.FlagID = domain.FlagID(flagID)
		item.Severity = sev
		item.DigestType = models.DigestType(dt)
		item.QueuedAt = item.QueuedAt.UTC()
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest queue: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Remove(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM digest_queue WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("remove digest items: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entries ...models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		var flagID *uuid.UUID
		if e.FlagID != nil {
			id := uuid.UUID(*e.FlagID)
			flagID = &id
		}
		batch.Queue(`
			INSERT INTO notification_history (id, guardian_id, flag_id, kind, status, detail, sent_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.GuardianID, flagID, string(e.Kind), string(e.Status), e.Detail, e.SentAt)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append notification history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SentFlags(ctx context.Context, guardianID domain.GuardianID, kind models.DeliveryKind, flagIDs []domain.FlagID) (map[domain.FlagID]bool, error) {
	out := make(map[domain.FlagID]bool)
	if len(flagIDs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(flagIDs))
	for i, id := range flagIDs {
		ids[i] = uuid.UUID(id)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT flag_id FROM notification_history
		WHERE guardian_id = $1 AND kind = $2 AND status = 'sent' AND flag_id = ANY($3)`,
		guardianID, string(kind), ids)
	if err != nil {
		return nil, fmt.Errorf("query sent flags: %w", err)
	}
	sent, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect sent flags: %w", err)
	}
	for _, id := range sent {
		out[domain.FlagID(id)] = true
	}
	return out, nil
}

// PendingStore persists quiet-hours deferrals.
type PendingStore struct {
	pool *pgxpool.Pool
}

func NewPendingStore(pool *pgxpool.Pool) *PendingStore {
	return &PendingStore{pool: pool}
}

func (s *PendingStore) Schedule(ctx context.Context, p models.PendingDelivery) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pending_deliveries (id, guardian_id, flag_id, deliver_at, title, body, deep_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guardian_id, flag_id) DO NOTHING`,
		p.ID, p.GuardianID, uuid.UUID(p.FlagID), p.DeliverAt,
		p.Payload.Title, p.Payload.Body, p.Payload.DeepLink, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("schedule pending delivery: %w", err)
	}
	return nil
}

func (s *PendingStore) Due(ctx context.Context, now time.Time) ([]models.PendingDelivery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guardian_id, flag_id, deliver_at, title, body, deep_link, created_at
		FROM pending_deliveries
		WHERE deliver_at <= $1
		ORDER BY deliver_at`, now)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	var out []models.PendingDelivery
	for rows.Next() {
		var (
			p          models.PendingDelivery
			guardianID string
			flagID     uuid.UUID
		)
		if err := rows.Scan(&p.ID, &guardianID, &flagID, &p.DeliverAt,
			&p.Payload.Title, &p.Payload.Body, &p.Payload.DeepLink, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending delivery: %w", err)
		}
		p.GuardianID = domain.GuardianID(guardianID)
		p.FlagID = domain.FlagID(flagID)
		p.DeliverAt = p.DeliverAt.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending deliveries: %w", err)
	}
	return out, nil
}

func (s *PendingStore) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pending_deliveries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove pending delivery: %w", err)
	}
	return nil
}
