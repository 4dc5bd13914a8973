package services

import (
	"context"

	"github.com/thereayou/wallet-profile/internal/models"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByAddress(ctx context.Context, address string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	UpdateUserFields(ctx context.Context, address string, fields map[string]interface{}) (*models.User, error)
	SetAgeVerified(ctx context.Context, address string) (*models.User, error)
	RotateNonce(ctx context.Context, address string) error
}
