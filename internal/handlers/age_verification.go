package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wallet-profile/internal/apperr"
	"github.com/thereayou/wallet-profile/internal/handlers/dto"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"github.com/thereayou/wallet-profile/internal/verification"
	"github.com/thereayou/wallet-profile/internal/websocket"
	"go.uber.org/zap"
)

// VerifyAge отправляет фото во внешний сервис оценки возраста и при прохождении
// порога помечает пользователя как проверенного. Нехватка входных данных или
// конфигурации - это success:false, а не ошибка.
func (h *UserHandler) VerifyAge(c *gin.Context) {
	address := middleware.CurrentAddress(c)

	if h.ages == nil {
		softFail(c, "age verification is not configured")
		return
	}

	var req dto.AgeVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		softFail(c, "image is required")
		return
	}

	result, err := h.ages.EstimateAge(c.Request.Context(), req.Image)
	if err != nil {
		var apiErr *verification.APIError
		switch {
		case errors.Is(err, verification.ErrInvalidImage):
			softFail(c, err.Error())
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			h.log.Info("age verification rejected", zap.String("address", address), zap.Int("status", apiErr.Status))
			softFail(c, "image was rejected by the verification provider")
		default:
			_ = c.Error(apperr.Wrap(http.StatusBadGateway, "age verification failed", err))
		}
		return
	}

	if !result.Passed() {
		c.JSON(http.StatusOK, gin.H{
			"success":      false,
			"age_verified": false,
			"result":       result.Age,
		})
		return
	}

	user, err := h.users.SetAgeVerified(c.Request.Context(), address)
	if err != nil {
		_ = c.Error(notFoundOr(err))
		return
	}

	h.refreshSession(c, user)
	h.notify(address, websocket.TypeAgeVerified, gin.H{"age_verified": true})

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"age_verified": true,
		"result":       result.Age,
	})
}

func softFail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
}
