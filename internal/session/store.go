package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/wallet-profile/internal/models"
)

const (
	sessionPrefix   = "session:"
	blacklistPrefix = "blacklist:"
)

var ErrNoSession = errors.New("session not found")

// Store хранит профиль залогиненного пользователя и черный список токенов в Redis
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Save(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionPrefix+user.Address, data, s.ttl).Err()
}

// Refresh перезаписывает профиль, не продлевая сессию
func (s *Store) Refresh(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.rdb.SetXX(ctx, sessionPrefix+user.Address, data, redis.KeepTTL).Err()
}

func (s *Store) Get(ctx context.Context, address string) (*models.User, error) {
	data, err := s.rdb.Get(ctx, sessionPrefix+address).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) Delete(ctx context.Context, address string) error {
	return s.rdb.Del(ctx, sessionPrefix+address).Err()
}

// Blacklist ставит токен в черный список до его истечения
func (s *Store) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistPrefix+token, 1, ttl).Err()
}

func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
