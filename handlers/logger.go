package handlers

import (
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a Zap logger from the Gin context or falls back to the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

func sessionID(c *gin.Context) string {
	if id := c.GetString("sessionID"); id != "" {
		return id
	}
	return c.GetHeader(utils.SessionHeader)
}
