package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pedidotrack.io/tracker/internal/domain"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
)

// ListOrders handles GET /orders — active orders in display priority order.
func (s *Server) ListOrders(c *gin.Context) {
	orders := s.orders.List()
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetHistory handles GET /orders/history — completed orders, newest first.
// Cleared orders are hidden unless ?include_cleared=true.
func (s *Server) GetHistory(c *gin.Context) {
	includeCleared := c.Query("include_cleared") == "true"
	orders := s.orders.History(includeCleared)
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder handles GET /orders/:id.
func (s *Server) GetOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ProcessOrder handles POST /orders/:id/process.
func (s *Server) ProcessOrder(c *gin.Context) {
	o, err := s.orders.Process(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CompleteOrder handles POST /orders/:id/complete.
func (s *Server) CompleteOrder(c *gin.Context) {
	o, err := s.orders.Complete(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ClearOrder handles POST /orders/:id/clear.
func (s *Server) ClearOrder(c *gin.Context) {
	o, err := s.orders.Clear(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ConfirmModification handles POST /orders/:id/confirm-modification.
func (s *Server) ConfirmModification(c *gin.Context) {
	o, err := s.orders.ConfirmModification(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type setDeliveryDateRequest struct {
	// DeliveryDate in YYYY-MM-DD form; empty clears the date.
	DeliveryDate string `json:"delivery_date"`
}

// SetDeliveryDate handles PUT /orders/:id/delivery-date.
func (s *Server) SetDeliveryDate(c *gin.Context) {
	var req setDeliveryDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}

	var date *time.Time
	if req.DeliveryDate != "" {
		parsed, err := time.Parse(domain.DateLayout, req.DeliveryDate)
		if err != nil {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "delivery_date must be YYYY-MM-DD"))
			return
		}
		date = &parsed
	}

	o, err := s.orders.SetDeliveryDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}
