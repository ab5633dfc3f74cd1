// Package styles provides the PostgreSQL-backed driving-style repository.
package styles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

const columns = `id, user_id, style_category, confidence, avg_speed, total_events, harsh_events_count, analysis_period_days, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.DrivingStyle) (*models.DrivingStyle, error) {
	query :=
		`INSERT INTO driving_styles (user_id, style_category, confidence, avg_speed, total_events, harsh_events_count, analysis_period_days, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.StyleCategory, s.Confidence, s.AvgSpeed, s.TotalEvents, s.HarshEventsCount,
		s.AnalysisPeriodDays, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

// LatestForUser returns the newest verdict; id breaks ties between verdicts
// saved within the same instant.
func (r *PostgresRepository) LatestForUser(ctx context.Context, userID int64) (*models.DrivingStyle, error) {
	query := `SELECT ` + columns + ` FROM driving_styles
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	s, err := scanStyle(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.DrivingStyle, error) {
	query := `SELECT ` + columns + ` FROM driving_styles
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select styles: %w", err)
	}
	defer rows.Close()

	result := make([]*models.DrivingStyle, 0)
	for rows.Next() {
		s, err := scanStyle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStyle(s scanner) (*models.DrivingStyle, error) {
	v := &models.DrivingStyle{}
	err := s.Scan(&v.ID, &v.UserID, &v.StyleCategory, &v.Confidence, &v.AvgSpeed,
		&v.TotalEvents, &v.HarshEventsCount, &v.AnalysisPeriodDays, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}
