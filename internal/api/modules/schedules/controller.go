package schedules_module

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/schedule"
)

// CreateSchedule handles POST requests to register a scheduled meeting.
func CreateSchedule(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request body"})
		return
	}

	m, err := schedulesService.Create(c.Request.Context(), userID, bearerToken(c), &req)
	if err != nil {
		log.Printf("[API]: Failed to create schedule: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, m)
}

// ListSchedules handles GET requests for a user's schedules.
func ListSchedules(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	meetings, err := schedulesService.List(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[API]: Failed to list schedules: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": meetings})
}

// DeleteSchedule handles DELETE requests for one schedule.
func DeleteSchedule(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	if err := schedulesService.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		log.Printf("[API]: Failed to delete schedule %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ToggleSchedule handles PATCH requests flipping a schedule active/inactive.
func ToggleSchedule(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	m, err := schedulesService.Toggle(c.Request.Context(), userID, bearerToken(c), id)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		log.Printf("[API]: Failed to toggle schedule %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle schedule"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// ListJobs handles GET requests for the scheduler's registered jobs.
func ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": schedulesService.Jobs()})
}

// GetCalendarEvents handles GET requests listing upcoming calendar events
// that carry a meeting link. The source is either the caller's Google access
// token (X-Google-Token header) or an ICS feed URL (feed query parameter).
func GetCalendarEvents(c *gin.Context) {
	daysAhead := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			daysAhead = parsed
		}
	}

	events, err := schedulesService.CalendarEvents(c.Request.Context(),
		c.GetHeader("X-Google-Token"), c.Query("feed"), daysAhead)
	if err != nil {
		log.Printf("[API]: Failed to fetch calendar events: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch calendar events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// SyncCalendar handles POST requests creating schedules from upcoming
// calendar events with meeting links.
func SyncCalendar(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return
	}

	daysAhead := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			daysAhead = parsed
		}
	}

	created, err := schedulesService.SyncCalendar(c.Request.Context(), userID, bearerToken(c),
		c.GetHeader("X-Google-Token"), c.Query("feed"), daysAhead)
	if err != nil {
		log.Printf("[API]: Calendar sync failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "calendar sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// bearerToken extracts the bearer token from the Authorization header, if
// present. Jobs fired later re-use it for the trigger call.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
