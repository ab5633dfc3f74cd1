package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/repomanager"
)

// StyleService keeps the append-only history of driving-style verdicts.
type StyleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewStyleService(db *sql.DB, m repomanager.RepositoryManager) *StyleService {
	return &StyleService{db: db, repomanager: m, now: time.Now}
}

// Save stores a new verdict; earlier ones are kept.
func (s *StyleService) Save(ctx context.Context, user *models.User, in models.DrivingStyleInput) (*models.DrivingStyle, error) {
	days := in.AnalysisPeriodDays
	if days <= 0 {
		days = common.DefaultAnalysisPeriodDays
	}

	now := s.now().UTC()
	st := &models.DrivingStyle{
		UserID:             user.ID,
		StyleCategory:      in.StyleCategory,
		Confidence:         in.Confidence,
		AvgSpeed:           in.AvgSpeed,
		TotalEvents:        in.TotalEvents,
		HarshEventsCount:   in.HarshEventsCount,
		AnalysisPeriodDays: days,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.DrivingStyle, error) {
		return s.repomanager.Styles(tx).Create(ctx, st)
	})
}

// LatestFor returns the newest verdict or common.ErrorNotFound.
func (s *StyleService) LatestFor(ctx context.Context, user *models.User) (*models.DrivingStyle, error) {
	return s.repomanager.Styles(s.db).LatestForUser(ctx, user.ID)
}

// History returns all verdicts, newest first.
func (s *StyleService) History(ctx context.Context, user *models.User) ([]*models.DrivingStyle, error) {
	return s.repomanager.Styles(s.db).ListByUser(ctx, user.ID)
}
