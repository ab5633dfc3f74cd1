package events

import (
	"context"

	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

// Page bounds a listing. A non-positive Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Repository persists driving events. Events are insert-only.
type Repository interface {
	Create(ctx context.Context, event *models.DrivingEvent) (*models.DrivingEvent, error)
	ListByUser(ctx context.Context, userID int64, page Page) ([]*models.DrivingEvent, error)
	// GetForUser matches on both id and owner, so an event owned by another
	// user is reported as common.ErrorNotFound.
	GetForUser(ctx context.Context, id, userID int64) (*models.DrivingEvent, error)
}
