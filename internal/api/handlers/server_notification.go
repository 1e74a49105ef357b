package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
)

// ListNotifications handles GET /notifications — inbox entries, newest first.
// ?limit=N caps the page.
func (s *Server) ListNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries := s.inbox.List(limit)
	c.JSON(http.StatusOK, gin.H{
		"notifications": entries,
		"count":         len(entries),
	})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	if !s.inbox.MarkRead(c.Param("id")) {
		_ = c.Error(apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
