package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	pingDB  func() error
}

// NewHealthHandler creates a HealthHandler that reports the given version
// and checks database reachability via pingDB.
func NewHealthHandler(version string, pingDB func() error) *HealthHandler {
	return &HealthHandler{version: version, pingDB: pingDB}
}

// HealthCheck returns service health status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"

	if h.pingDB != nil {
		if err := h.pingDB(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		}
	}

	c.JSON(status, gin.H{
		"status":    healthWord(status),
		"database":  dbStatus,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func healthWord(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}
