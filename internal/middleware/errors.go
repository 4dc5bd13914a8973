package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/wallet-profile/internal/apperr"
	"go.uber.org/zap"
)

// ErrorHandler отдаёт последнюю ошибку из c.Errors клиенту.
// Ошибки без статуса считаются внутренними: причина уходит в лог, клиенту 500.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, message := apperr.StatusOf(err)
		if status >= 500 {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{"error": message})
	}
}
