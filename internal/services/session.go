package services

import (
	"context"
	"time"

	"github.com/thereayou/wallet-profile/internal/models"
)

type SessionStore interface {
	Save(ctx context.Context, user *models.User) error
	Refresh(ctx context.Context, user *models.User) error
	Get(ctx context.Context, address string) (*models.User, error)
	Delete(ctx context.Context, address string) error
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}
