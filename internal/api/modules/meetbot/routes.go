package meetbot_module

import (
	"github.com/gin-gonic/gin"
)

// Register routes for the meet-bot module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/meet-bot")

	group.POST("/trigger", TriggerBot)
	group.GET("/status/:id", GetBotStatus)
	group.POST("/callback", BotCallback)
}
