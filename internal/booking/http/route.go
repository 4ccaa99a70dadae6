package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, rateLimit gin.HandlerFunc, adminMiddleware ...gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Public Routes ===
	group.POST("", rateLimit, h.Create)

	// === Staff Routes ===
	admin := group.Group("", adminMiddleware...)
	{
		admin.GET("", h.List)
		admin.GET("/stats", h.Stats)
		admin.GET("/stats/service-types", h.ServiceTypes)
		admin.GET("/:id", h.Get)
		admin.PATCH("/:id/status", h.UpdateStatus)
	}
}
