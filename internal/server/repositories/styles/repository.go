package styles

import (
	"context"

	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

// Repository persists driving-style verdicts. There is no update path;
// every verdict is a new row.
type Repository interface {
	Create(ctx context.Context, style *models.DrivingStyle) (*models.DrivingStyle, error)
	LatestForUser(ctx context.Context, userID int64) (*models.DrivingStyle, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.DrivingStyle, error)
}
