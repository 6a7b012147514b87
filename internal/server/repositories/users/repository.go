package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/workboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByIDForUpdate locks the row until the surrounding transaction ends.
	GetUserByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string, expiry time.Time) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiry time.Time) error
	ExistsWithRole(ctx context.Context, role string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) (models.PageResult[models.User], error)
}
