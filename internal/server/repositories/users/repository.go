package users

import (
	"context"

	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// when no row matches; Create returns common.ErrDuplicate on a unique
// violation of email or username.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	ExistsByEmailOrUserName(ctx context.Context, email, userName string) (bool, error)
	SetActive(ctx context.Context, userName string, active bool) error
}
