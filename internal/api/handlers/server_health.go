package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadiness handles GET /health/ready. Ready once the scheduler has
// published at least one snapshot; degraded when the last cycle failed.
func (s *Server) GetReadiness(c *gin.Context) {
	lastRefresh, lastErr := s.sched.Status()

	checks := make(map[string]string)
	status := "ok"
	httpStatus := http.StatusOK

	switch {
	case lastRefresh.IsZero():
		checks["snapshot"] = "missing"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	case lastErr != nil:
		checks["snapshot"] = "stale"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	default:
		checks["snapshot"] = "ok"
	}
	if !lastRefresh.IsZero() {
		checks["last_refresh"] = lastRefresh.UTC().Format(time.RFC3339)
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"checks": checks,
	})
}
