package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medisched/hospital-appointment-api/middleware"
)

const apiVersion = "1.0.0"

// Health godoc
// @Summary      Liveness check
// @Description  Reports API and database connectivity
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func Health(c *gin.Context) {
	dbState := "disconnected"
	if db := middleware.GetDB(c); db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB.Ping() == nil {
			dbState = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Hospital Appointment System API is running!",
		"database":  dbState,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
	})
}
