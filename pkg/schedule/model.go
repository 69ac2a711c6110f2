package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleType is the trigger rule kind for a scheduled meeting.
type ScheduleType string

const (
	// ScheduleOnce fires a single time at the scheduled time.
	ScheduleOnce ScheduleType = "once"

	// ScheduleDaily fires every day at the scheduled hour:minute.
	ScheduleDaily ScheduleType = "daily"

	// ScheduleWeekly fires on a set of weekdays at the scheduled
	// hour:minute.
	ScheduleWeekly ScheduleType = "weekly"

	// ScheduleCalendar behaves as once, derived from a calendar event.
	ScheduleCalendar ScheduleType = "calendar"
)

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleOnce, ScheduleDaily, ScheduleWeekly, ScheduleCalendar:
		return true
	default:
		return false
	}
}

// ScheduledMeeting is a persisted instruction to send a bot into a meeting
// on a time-based rule. Weekdays use 0=Monday .. 6=Sunday, stored as CSV.
type ScheduledMeeting struct {
	ID              uuid.UUID    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID          string       `json:"user_id" gorm:"size:255;not null;index"`
	MeetURL         string       `json:"meet_url" gorm:"size:512;not null"`
	BotName         string       `json:"bot_name" gorm:"size:255"`
	ScheduleType    ScheduleType `json:"schedule_type" gorm:"size:20;not null"`
	ScheduledTime   *time.Time   `json:"scheduled_time,omitempty"`
	DaysOfWeek      string       `json:"days_of_week,omitempty" gorm:"size:32"`
	CalendarEventID *string      `json:"calendar_event_id,omitempty" gorm:"size:255;index"`
	IsActive        bool         `json:"is_active" gorm:"not null;default:true"`
	NextTriggerAt   *time.Time   `json:"next_trigger_at,omitempty"`
	LastTriggeredAt *time.Time   `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Weekdays parses the DaysOfWeek CSV into a sorted-as-written int slice.
func (m *ScheduledMeeting) Weekdays() ([]int, error) {
	if m.DaysOfWeek == "" {
		return nil, nil
	}

	var days []int
	for _, part := range strings.Split(m.DaysOfWeek, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("invalid day of week %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}
