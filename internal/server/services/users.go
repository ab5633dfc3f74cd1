// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, token resolution and the
// administrative activation switch.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/dbx"
	"github.com/dmitrijs2005/drivesense/internal/server/auth"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/repomanager"
)

// dummyHash is verified against when the user does not exist, so unknown
// usernames cost the same as wrong passwords.
var dummyHash = auth.HashPassword("drivesense-timing-equalizer")

type RegisterInput struct {
	Email    string
	UserName string
	Password string
	FullName *string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		now:         time.Now,
	}
}

// Register creates an active account. Email and username must both be
// unused; a conflict yields common.ErrDuplicate.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.UserName) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email, username and password are required", common.ErrValidation)
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmailOrUserName(ctx, in.Email, in.UserName)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, common.ErrDuplicate
		}

		now := s.now().UTC()
		return repo.Create(ctx, &models.User{
			Email:        in.Email,
			UserName:     in.UserName,
			PasswordHash: auth.HashPassword(in.Password),
			FullName:     in.FullName,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
}

// Login checks credentials and returns a fresh access token. Inactive
// accounts get common.ErrForbidden even with a correct password.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyPassword(password, dummyHash)
			return "", common.ErrAuthentication
		}
		return "", err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", common.ErrAuthentication
	}
	if !user.IsActive {
		return "", common.ErrForbidden
	}

	return s.tokens.Issue(user.UserName, 0)
}

// Resolve maps a bearer token to its user. It does not look at the
// activation flag; callers decide whether that matters.
func (s *UserService) Resolve(ctx context.Context, token string) (*models.User, error) {
	userName, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}

	return s.repomanager.Users(s.db).GetByUserName(ctx, userName)
}

// SetActive flips the activation flag of userName.
func (s *UserService) SetActive(ctx context.Context, userName string, active bool) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).SetActive(ctx, userName, active)
	})
}
