package handlers

import (
	"net/http"

	"labbook/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency check made by the health monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	healthy := status.Mongo
	for _, ok := range status.Redis {
		healthy = healthy && ok
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
}
