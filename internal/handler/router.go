package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/middleware"
	"github.com/noah-isme/class-series-api/internal/models"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Instances *InstanceHandler
	Series    *SeriesHandler
	Sessions  *SessionHandler
	Days      *DayHandler
}

// RegisterRoutes mounts the API on group. Every route requires a token;
// series and day administration require the admin role.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator, logger *zap.Logger) {
	group.Use(middleware.JWT(tokens))

	group.GET("/instances", h.Instances.List)
	group.POST("/snapshot/refresh", h.Instances.Refresh)
	group.POST("/instances/:id/enrollment", h.Instances.Enroll)
	group.DELETE("/instances/:id/enrollment", h.Instances.Unenroll)
	group.POST("/instances/:id/waitlist", h.Instances.JoinWaitlist)
	group.DELETE("/instances/:id/waitlist", h.Instances.LeaveWaitlist)

	group.GET("/sessions/current/proposals", h.Sessions.Proposals)
	group.DELETE("/sessions/current", h.Sessions.End)

	admin := group.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/series", h.Series.List)
	admin.POST("/series/expirations/detect", h.Series.DetectExpirations)
	admin.POST("/series/bulk/edit", middleware.Audit(logger, "series.edit"), h.Series.Edit)
	admin.POST("/series/bulk/extend", middleware.Audit(logger, "series.extend"), h.Series.Extend)
	admin.POST("/series/bulk/delete", middleware.Audit(logger, "series.delete"), h.Series.Delete)
	admin.POST("/days/:date/cancel", middleware.Audit(logger, "day.cancel"), h.Days.Cancel)
	admin.POST("/days/:date/reactivate", middleware.Audit(logger, "day.reactivate"), h.Days.Reactivate)
	admin.GET("/days/:date/export", h.Days.Export)
}
