package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HealthCheck(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
	}
}
