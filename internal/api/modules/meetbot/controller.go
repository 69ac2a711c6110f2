package meetbot_module

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/sdk"
)

// TriggerBot handles POST requests to send a bot into a meeting. The call
// returns the tracking id immediately; any downstream failure surfaces only
// through the status endpoint.
func TriggerBot(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	var req sdk.TriggerBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request body"})
		return
	}

	log.Printf("[API]: User %s triggering bot for meeting: %s", userID, req.MeetURL)

	resp, err := meetbotService.Trigger(c.Request.Context(), userID, &req)
	if err != nil {
		log.Printf("[API]: Failed to start bot: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "bot service is unavailable"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBotStatus handles GET requests for a bot's lifecycle record.
func GetBotStatus(c *gin.Context) {
	record, ok := meetbotService.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// BotCallback handles POST requests from the downstream processing pipeline
// marking a bot's results ready.
func BotCallback(c *gin.Context) {
	var req sdk.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request body"})
		return
	}

	record, ok := meetbotService.Callback(&req)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}
