package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
)

// ListAttachments handles GET /orders/:id/attachments. An unresolved prefix
// yields an empty list with 200, never an error.
func (s *Server) ListAttachments(c *gin.Context) {
	view, err := s.attachments.ListForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UploadAttachment handles POST /orders/:id/attachments (multipart form,
// field "file").
func (s *Server) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "multipart field 'file' is required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "unreadable upload"))
		return
	}
	defer f.Close()

	att, err := s.attachments.Upload(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		f,
	)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, att)
}
