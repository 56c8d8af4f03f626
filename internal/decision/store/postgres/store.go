// Package postgres persists flags for the dashboard collaborator.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type PostgresFlagStore struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *PostgresFlagStore {
	return &PostgresFlagStore{pool: pool}
}

func (s *PostgresFlagStore) Save(ctx context.Context, flag *concern.Flag) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO flags (id, family_id, subject_id, category, severity, confidence, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(flag.ID), flag.FamilyID, flag.SubjectID, string(flag.Category),
		flag.Severity.String(), flag.Confidence, flag.EventID, flag.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert flag: %w", err)
	}
	return nil
}

const selectFlag = `SELECT id, family_id, subject_id, category, severity, confidence, event_id, created_at FROM flags`

func (s *PostgresFlagStore) FindByID(ctx context.Context, id domain.FlagID) (*concern.Flag, error) {
	row := s.pool.QueryRow(ctx, selectFlag+` WHERE id = $1`, uuid.UUID(id))
	f, err := scanFlag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find flag: %w", err)
	}
	return f, nil
}

// ListByFamily returns a family's flags, newest first.
func (s *PostgresFlagStore) ListByFamily(ctx context.Context, familyID domain.FamilyID) ([]concern.Flag, error) {
	rows, err := s.pool.Query(ctx, selectFlag+` WHERE family_id = $1 ORDER BY created_at DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()
	var out []concern.Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func scanFlag(row pgx.Row) (*concern.Flag, error) {
	var (
		f        concern.Flag
		id       uuid.UUID
		family   string
		subject  string
		category string
		severity string
	)
	if err := row.Scan(&id, &family, &subject, &category, &severity, &f.Confidence, &f.EventID, &f.CreatedAt); err != nil {
		return nil, err
	}
	sev, err := concern.ParseSeverity(severity)
	if err != nil {
		return nil, err
	}
	f.ID = domain.FlagID(id)
	f.FamilyID = domain.FamilyID(family)
	f.SubjectID = domain.SubjectID(subject)
	f.Category = concern.Category(category)
	f.Severity = sev
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}
