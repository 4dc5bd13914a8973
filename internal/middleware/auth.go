package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wallet-profile/internal/apperr"
	"github.com/thereayou/wallet-profile/internal/database"
	"github.com/thereayou/wallet-profile/internal/models"
	"github.com/thereayou/wallet-profile/internal/services"
	"github.com/thereayou/wallet-profile/internal/session"
	"github.com/thereayou/wallet-profile/pkg/auth"
)

const (
	AddressKey = "address"
	UserKey    = "sessionUser"
	TokenKey   = "token"
)

type Authenticator struct {
	jwt      *auth.JWTManager
	sessions services.SessionStore
	users    services.UserRepository
}

func NewAuthenticator(jwt *auth.JWTManager, sessions services.SessionStore, users services.UserRepository) *Authenticator {
	return &Authenticator{jwt: jwt, sessions: sessions, users: users}
}

// AuthMiddleware проверяет JWT из Authorization header и поднимает сессию
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abort(c, apperr.Unauthorized("missing or invalid token"))
			return
		}
		a.authenticate(c, token)
	}
}

// WSAuthMiddleware браузер не умеет слать заголовки при upgrade, поэтому токен можно передать в query
func (a *Authenticator) WSAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = auth.ExtractTokenFromHeader(c.Request)
		}
		if token == "" {
			abort(c, apperr.Unauthorized("missing token"))
			return
		}
		a.authenticate(c, token)
	}
}

func (a *Authenticator) authenticate(c *gin.Context, token string) {
	ctx := c.Request.Context()

	blacklisted, err := a.sessions.IsBlacklisted(ctx, token)
	if err != nil {
		abort(c, err)
		return
	}
	if blacklisted {
		abort(c, apperr.Unauthorized("token is blacklisted"))
		return
	}

	claims, err := a.jwt.Verify(token)
	if err != nil {
		abort(c, apperr.Unauthorized("invalid token"))
		return
	}
	address := claims.Subject

	user, err := a.sessions.Get(ctx, address)
	if errors.Is(err, session.ErrNoSession) {
		// Redis мог потерять ключ, токен при этом валиден
		user, err = a.users.GetUserByAddress(ctx, address)
		if err == nil {
			err = a.sessions.Save(ctx, user)
		}
	}
	if errors.Is(err, database.ErrUserNotFound) {
		abort(c, apperr.Unauthorized("session not found"))
		return
	}
	if err != nil {
		abort(c, err)
		return
	}

	c.Set(AddressKey, address)
	c.Set(UserKey, user)
	c.Set(TokenKey, token)
	c.Next()
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func CurrentAddress(c *gin.Context) string {
	return c.GetString(AddressKey)
}

func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
