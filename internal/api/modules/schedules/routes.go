package schedules_module

import (
	"github.com/gin-gonic/gin"
)

// Register routes for the schedules module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/schedules")

	group.POST("", CreateSchedule)
	group.GET("", ListSchedules)
	group.DELETE("/:id", DeleteSchedule)
	group.PATCH("/:id/toggle", ToggleSchedule)
	group.GET("/jobs", ListJobs)

	group.GET("/calendar/events", GetCalendarEvents)
	group.POST("/calendar/sync", SyncCalendar)
}
