// Package events provides the PostgreSQL-backed driving event repository.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

const columns = `id, user_id, event_type, severity, latitude, longitude, speed, acceleration, notes, event_timestamp, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.DrivingEvent) (*models.DrivingEvent, error) {
	query :=
		`INSERT INTO driving_events (user_id, event_type, severity, latitude, longitude, speed, acceleration, notes, event_timestamp, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		e.UserID, e.EventType, e.Severity, e.Latitude, e.Longitude, e.Speed, e.Acceleration, e.Notes,
		e.Timestamp, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

// ListByUser returns the user's events newest first. Rows sharing a
// timestamp come back in insertion order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]*models.DrivingEvent, error) {
	query := `SELECT ` + columns + ` FROM driving_events
		WHERE user_id = $1
		ORDER BY event_timestamp DESC, id ASC
		LIMIT $2 OFFSET $3`

	// LIMIT NULL is no limit in PostgreSQL
	limit := sql.NullInt64{Int64: int64(page.Limit), Valid: page.Limit > 0}
	offset := max(page.Offset, 0)

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	result := make([]*models.DrivingEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID int64) (*models.DrivingEvent, error) {
	query := `SELECT ` + columns + ` FROM driving_events
		WHERE id = $1 AND user_id = $2`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.DrivingEvent, error) {
	e := &models.DrivingEvent{}
	err := s.Scan(&e.ID, &e.UserID, &e.EventType, &e.Severity,
		&e.Latitude, &e.Longitude, &e.Speed, &e.Acceleration, &e.Notes,
		&e.Timestamp, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
