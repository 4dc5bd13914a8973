package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wallet-profile/internal/apperr"
	"github.com/thereayou/wallet-profile/internal/database"
	"github.com/thereayou/wallet-profile/internal/handlers/dto"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"github.com/thereayou/wallet-profile/internal/services"
	"github.com/thereayou/wallet-profile/pkg/auth"
	"github.com/thereayou/wallet-profile/pkg/wallet"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users      services.UserRepository
	sessions   services.SessionStore
	jwtManager *auth.JWTManager
	log        *zap.Logger
}

func NewAuthHandler(users services.UserRepository, sessions services.SessionStore, jwtMgr *auth.JWTManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, jwtManager: jwtMgr, log: log}
}

// Challenge возвращает сообщение с текущим nonce, которое кошелёк должен подписать
func (h *AuthHandler) Challenge(c *gin.Context) {
	address, err := wallet.NormalizeAddress(c.Param("address"))
	if err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	user, err := h.users.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		_ = c.Error(notFoundOr(err))
		return
	}

	c.JSON(http.StatusOK, dto.ChallengeResponse{
		Address: user.Address,
		Message: wallet.ChallengeMessage(user.Nonce),
	})
}

// Login проверяет подпись, меняет nonce, выдаёт JWT и создаёт сессию
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	address, err := wallet.NormalizeAddress(req.Address)
	if err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	user, err := h.users.GetUserByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			_ = c.Error(apperr.Unauthorized("invalid credentials"))
			return
		}
		_ = c.Error(err)
		return
	}

	if err := wallet.VerifySignature(address, wallet.ChallengeMessage(user.Nonce), req.Signature); err != nil {
		_ = c.Error(apperr.Unauthorized("invalid credentials"))
		return
	}

	if err := h.users.RotateNonce(ctx, address); err != nil {
		_ = c.Error(err)
		return
	}

	token, expiresAt, err := h.jwtManager.Generate(address)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.sessions.Save(ctx, user); err != nil {
		_ = c.Error(err)
		return
	}

	h.log.Info("user logged in", zap.String("address", address))

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      formatUserResponse(user),
	})
}

// Logout ставит токен в черный список в Redis до истечения и удаляет сессию
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	rawToken := c.GetString(middleware.TokenKey)

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		_ = c.Error(apperr.Unauthorized("invalid token"))
		return
	}

	if err := h.sessions.Blacklist(ctx, rawToken, time.Until(exp)); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.sessions.Delete(ctx, middleware.CurrentAddress(c)); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
