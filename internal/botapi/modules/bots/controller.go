package bots_module

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/meetbot"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/sdk"
)

// StartBot handles POST requests to send the bot into a meeting. The session
// runs on its own worker; the response only acknowledges the start.
func StartBot(c *gin.Context) {
	var req sdk.StartBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request body"})
		return
	}

	resp, err := botsService.Start(&req)
	if err != nil {
		if errors.Is(err, meetbot.ErrAdapterBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "a bot session is already running"})
			return
		}
		log.Printf("[BOT-API]: Failed to start session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start bot"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBot handles GET requests for a bot's status, including finished ones.
func GetBot(c *gin.Context) {
	status, info, ok := botsService.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bot_id":  status.BotID,
		"status":  status.Status,
		"session": info,
	})
}
