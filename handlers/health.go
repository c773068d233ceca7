package handlers

import (
	"net/http"

	"giftkit/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles GET /health from the monitor's last snapshot.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
