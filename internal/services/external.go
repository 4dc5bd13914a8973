package services

import (
	"context"

	"github.com/thereayou/wallet-profile/internal/storage"
	"github.com/thereayou/wallet-profile/internal/verification"
)

type FileStore interface {
	UploadAll(ctx context.Context, owner string, objects []storage.Object) []storage.Result
}

type AgeEstimator interface {
	EstimateAge(ctx context.Context, image string) (*verification.Result, error)
}

// Notifier доставляет события владельцу адреса во все его websocket-соединения
type Notifier interface {
	NotifyUser(address string, event string, payload interface{})
}
