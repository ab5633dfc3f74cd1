package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/events"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/styles"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can use
// the same repository type against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Events(db dbx.DBTX) events.Repository
	Styles(db dbx.DBTX) styles.Repository
}
