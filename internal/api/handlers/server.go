// Package handlers implements the HTTP handlers of the operator API.
//
// Handlers are thin: they bind request parameters, call into the service
// layer, and push failures to the centralized error-handler middleware via
// c.Error(). Route registration happens in RegisterRoutes, wired from the
// composition root.
package handlers

import (
	"github.com/gin-gonic/gin"

	"pedidotrack.io/tracker/internal/api/middleware"
	"pedidotrack.io/tracker/internal/notification"
	"pedidotrack.io/tracker/internal/scheduler"
	"pedidotrack.io/tracker/internal/service"
)

// Server holds the handler dependencies.
type Server struct {
	orders      *service.OrderService
	attachments *service.AttachmentService
	inbox       *notification.InboxSender
	sched       *scheduler.Scheduler
}

// ServerDeps holds all dependencies for creating a Server. Manual DI.
type ServerDeps struct {
	Orders      *service.OrderService
	Attachments *service.AttachmentService
	Inbox       *notification.InboxSender
	Scheduler   *scheduler.Scheduler
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		orders:      deps.Orders,
		attachments: deps.Attachments,
		inbox:       deps.Inbox,
		sched:       deps.Scheduler,
	}
}

// RegisterRoutes attaches all API routes to the given group.
func (s *Server) RegisterRoutes(api gin.IRouter) {
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/history", s.GetHistory)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/process", s.ProcessOrder)
	api.POST("/orders/:id/complete", s.CompleteOrder)
	api.POST("/orders/:id/clear", s.ClearOrder)
	api.POST("/orders/:id/confirm-modification", s.ConfirmModification)
	api.PUT("/orders/:id/delivery-date", s.SetDeliveryDate)
	api.GET("/orders/:id/attachments", s.ListAttachments)
	api.POST("/orders/:id/attachments", s.UploadAttachment)
	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)
}

// RegisterHealthRoutes attaches the unauthenticated health endpoints.
func (s *Server) RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
}

// actorFromCtx extracts the authenticated operator name from the request
// context.
func actorFromCtx(c *gin.Context) string {
	if op := middleware.GetOperator(c.Request.Context()); op != "" {
		return op
	}
	return "anonymous"
}
