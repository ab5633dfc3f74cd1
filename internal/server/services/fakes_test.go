package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/events"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/styles"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeRepoMgr serves in-memory repositories regardless of the DBTX passed.
type fakeRepoMgr struct {
	users  *fakeUsersRepo
	events *fakeEventsRepo
	styles *fakeStylesRepo
}

func newFakeRepoMgr() *fakeRepoMgr {
	return &fakeRepoMgr{
		users:  &fakeUsersRepo{byName: map[string]*models.User{}},
		events: &fakeEventsRepo{},
		styles: &fakeStylesRepo{},
	}
}

func (m *fakeRepoMgr) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoMgr) Users(dbx.DBTX) users.Repository            { return m.users }
func (m *fakeRepoMgr) Events(dbx.DBTX) events.Repository          { return m.events }
func (m *fakeRepoMgr) Styles(dbx.DBTX) styles.Repository          { return m.styles }

type fakeUsersRepo struct {
	byName map[string]*models.User
	nextID int64
	err    error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	c := *u
	c.ID = f.nextID
	f.byName[u.UserName] = &c
	return &c, nil
}

func (f *fakeUsersRepo) GetByUserName(_ context.Context, name string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) ExistsByEmailOrUserName(_ context.Context, email, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.byName {
		if u.Email == email || u.UserName == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) SetActive(_ context.Context, name string, active bool) error {
	u, ok := f.byName[name]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}

type fakeEventsRepo struct {
	rows   []*models.DrivingEvent
	nextID int64
	err    error
	// foreign makes GetForUser return a row owned by someone else
	foreign bool
}

func (f *fakeEventsRepo) Create(_ context.Context, e *models.DrivingEvent) (*models.DrivingEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	c := *e
	c.ID = f.nextID
	f.rows = append(f.rows, &c)
	return &c, nil
}

func (f *fakeEventsRepo) ListByUser(_ context.Context, userID int64, page events.Page) ([]*models.DrivingEvent, error) {
	out := make([]*models.DrivingEvent, 0)
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	if page.Offset >= len(out) {
		return make([]*models.DrivingEvent, 0), nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

func (f *fakeEventsRepo) GetForUser(_ context.Context, id, userID int64) (*models.DrivingEvent, error) {
	for _, e := range f.rows {
		if e.ID == id && (e.UserID == userID || f.foreign) {
			return e, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeStylesRepo struct {
	rows   []*models.DrivingStyle
	nextID int64
}

func (f *fakeStylesRepo) Create(_ context.Context, s *models.DrivingStyle) (*models.DrivingStyle, error) {
	f.nextID++
	c := *s
	c.ID = f.nextID
	f.rows = append(f.rows, &c)
	return &c, nil
}

func (f *fakeStylesRepo) ListByUser(_ context.Context, userID int64) ([]*models.DrivingStyle, error) {
	out := make([]*models.DrivingStyle, 0)
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStylesRepo) LatestForUser(ctx context.Context, userID int64) (*models.DrivingStyle, error) {
	list, _ := f.ListByUser(ctx, userID)
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return list[0], nil
}
