package health_module

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register routes for the health module
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
