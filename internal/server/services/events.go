package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/events"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/repomanager"
)

// EventService records and reads driving events on behalf of an already
// resolved user. Every read is scoped to that user.
type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager) *EventService {
	return &EventService{db: db, repomanager: m, now: time.Now}
}

// Record stores a new event. Both timestamps are the recording instant;
// severity is stored as given.
func (s *EventService) Record(ctx context.Context, user *models.User, in models.DrivingEventInput) (*models.DrivingEvent, error) {
	now := s.now().UTC()
	e := &models.DrivingEvent{
		UserID:       user.ID,
		EventType:    in.EventType,
		Severity:     in.Severity,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Speed:        in.Speed,
		Acceleration: in.Acceleration,
		Notes:        in.Notes,
		Timestamp:    now,
		CreatedAt:    now,
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.DrivingEvent, error) {
		return s.repomanager.Events(tx).Create(ctx, e)
	})
}

// ListFor returns the user's events, newest first.
func (s *EventService) ListFor(ctx context.Context, user *models.User, page events.Page) ([]*models.DrivingEvent, error) {
	return s.repomanager.Events(s.db).ListByUser(ctx, user.ID, page)
}

// GetOne returns event id if the user owns it. Foreign and absent events are
// both common.ErrorNotFound.
func (s *EventService) GetOne(ctx context.Context, user *models.User, id int64) (*models.DrivingEvent, error) {
	e, err := s.repomanager.Events(s.db).GetForUser(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	// the query already filters on owner
	if e.UserID != user.ID {
		return nil, common.ErrorNotFound
	}
	return e, nil
}
