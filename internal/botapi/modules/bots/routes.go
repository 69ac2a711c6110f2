package bots_module

import (
	"github.com/gin-gonic/gin"
)

// Register routes for the bots module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/bots")

	group.POST("/start", StartBot)
	group.GET("/:id", GetBot)
}
