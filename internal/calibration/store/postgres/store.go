// Package postgres reads family configuration written by the account service
// and maintains bias profiles.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vigil/internal/calibration/models"
	"vigil/internal/concern"
	"vigil/pkg/domain"
	"vigil/pkg/platform/sentinel"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindSensitivity(ctx context.Context, familyID domain.FamilyID) (*models.FamilySensitivityConfig, error) {
	cfg := &models.FamilySensitivityConfig{FamilyID: familyID}
	var level string
	err := s.pool.QueryRow(ctx,
		`SELECT level FROM family_sensitivity WHERE family_id = $1`, familyID,
	).Scan(&level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query family sensitivity: %w", err)
	}
	cfg.Level = models.SensitivityLevel(level)

	rows, err := s.pool.Query(ctx,
		`SELECT category, threshold FROM family_category_overrides WHERE family_id = $1`, familyID)
	if err != nil {
		return nil, fmt.Errorf("query category overrides: %w", err)
	}
	defer rows.Close()
	cfg.CategoryOverrides = make(map[concern.Category]int)
	for rows.Next() {
		var (
			category  string
			threshold int
		)
		if err := rows.Scan(&category, &threshold); err != nil {
			return nil, fmt.Errorf("scan category override: %w", err)
		}
		cfg.CategoryOverrides[concern.Category(category)] = threshold
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category overrides: %w", err)
	}
	return cfg, nil
}

// PutSensitivity upserts a family config. Used by seeding and tests; in
// production the account service owns these rows.
func (s *PostgresStore) PutSensitivity(ctx context.Context, cfg models.FamilySensitivityConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO family_sensitivity (family_id, level) VALUES ($1, $2)
			ON CONFLICT (family_id) DO UPDATE SET level = EXCLUDED.level`,
			cfg.FamilyID, string(cfg.Level)); err != nil {
			return fmt.Errorf("upsert family sensitivity: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM family_category_overrides WHERE family_id = $1`, cfg.FamilyID); err != nil {
			return fmt.Errorf("clear category overrides: %w", err)
		}
		for category, threshold := range cfg.CategoryOverrides {
			if _, err := tx.Exec(ctx,
				`INSERT INTO family_category_overrides (family_id, category, threshold) VALUES ($1, $2, $3)`,
				cfg.FamilyID, string(category), threshold); err != nil {
				return fmt.Errorf("insert category override: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindApproval(ctx context.Context, subjectID domain.SubjectID, appIdentifier string, category concern.Category) (*models.AppApprovalRecord, error) {
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT status FROM app_approvals
		WHERE subject_id = $1 AND app_identifier = $2 AND category = $3`,
		subjectID, appIdentifier, string(category),
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query app approval: %w", err)
	}
	return &models.AppApprovalRecord{
		SubjectID:     subjectID,
		AppIdentifier: appIdentifier,
		Category:      category,
		Status:        models.ApprovalStatus(status),
	}, nil
}

func (s *PostgresStore) PutApproval(ctx context.Context, rec models.AppApprovalRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_approvals (subject_id, app_identifier, category, status) VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, app_identifier, category) DO UPDATE SET status = EXCLUDED.status`,
		rec.SubjectID, rec.AppIdentifier, string(rec.Category), string(rec.Status))
	if err != nil {
		return fmt.Errorf("upsert app approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProfile(ctx context.Context, familyID domain.FamilyID, category concern.Category) (*models.FamilyBiasProfile, error) {
	return findProfile(ctx, s.pool, familyID, category, "")
}

// UpdateProfile serializes concurrent corrections with a row lock.
func (s *PostgresStore) UpdateProfile(ctx context.Context, familyID domain.FamilyID, category concern.Category, fn func(*models.FamilyBiasProfile) error) (*models.FamilyBiasProfile, error) {
	var out *models.FamilyBiasProfile
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Ensure the row exists so FOR UPDATE has something to lock.
		if _, err := tx.Exec(ctx, `
			INSERT INTO family_bias_profiles (family_id, category, adjustment, correction_count, updated_at)
			VALUES ($1, $2, 0, 0, now())
			ON CONFLICT (family_id, category) DO NOTHING`,
			familyID, string(category)); err != nil {
			return fmt.Errorf("seed bias profile: %w", err)
		}
		p, err := findProfile(ctx, tx, familyID, category, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE family_bias_profiles
			SET adjustment = $3, correction_count = $4, updated_at = $5
			WHERE family_id = $1 AND category = $2`,
			familyID, string(category), p.Adjustment, p.CorrectionCount, p.UpdatedAt); err != nil {
			return fmt.Errorf("update bias profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findProfile(ctx context.Context, q querier, familyID domain.FamilyID, category concern.Category, lock string) (*models.FamilyBiasProfile, error) {
	p := &models.FamilyBiasProfile{FamilyID: familyID, Category: category}
	err := q.QueryRow(ctx, `
		SELECT adjustment, correction_count, updated_at FROM family_bias_profiles
		WHERE family_id = $1 AND category = $2`+lock,
		familyID, string(category),
	).Scan(&p.Adjustment, &p.CorrectionCount, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query bias profile: %w", err)
	}
	return p, nil
}
