package schedules_module

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/calendar"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/schedule"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

// CreateScheduleRequest describes a new scheduled meeting.
type CreateScheduleRequest struct {
	MeetURL       string     `json:"meet_url" binding:"required"`
	BotName       string     `json:"bot_name"`
	ScheduleType  string     `json:"schedule_type" binding:"required"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	DaysOfWeek    string     `json:"days_of_week"`
}

// service keeps the schedule store and the live scheduler in step.
type service struct {
	cfg       *utils.Config
	store     schedule.StoreInterface
	scheduler *schedule.Scheduler
	google    *calendar.GoogleService
	feeds     *calendar.ICSService
}

var schedulesService *service

// Init wires the module's service. Must be called before serving.
func Init(cfg *utils.Config, store schedule.StoreInterface, scheduler *schedule.Scheduler,
	google *calendar.GoogleService, feeds *calendar.ICSService) {
	schedulesService = &service{
		cfg:       cfg,
		store:     store,
		scheduler: scheduler,
		google:    google,
		feeds:     feeds,
	}
}

// ReloadActiveSchedules re-registers persisted active schedules with the
// scheduler, so recurring jobs survive a restart.
func ReloadActiveSchedules(ctx context.Context) {
	if schedulesService == nil {
		return
	}

	meetings, err := schedulesService.store.ListActive(ctx)
	if err != nil {
		log.Printf("[SCHEDULES]: Failed to reload schedules: %v", err)
		return
	}

	count := 0
	for _, m := range meetings {
		if err := schedulesService.scheduler.Schedule(m, ""); err != nil {
			log.Printf("[SCHEDULES]: Could not re-register schedule %s: %v", m.ID, err)
			continue
		}
		count++
	}
	log.Printf("[SCHEDULES]: Reloaded %d active schedules", count)
}

// Create persists a schedule and registers it with the scheduler.
func (s *service) Create(ctx context.Context, userID, bearer string, req *CreateScheduleRequest) (*schedule.ScheduledMeeting, error) {
	kind := schedule.ScheduleType(req.ScheduleType)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown schedule type %q", req.ScheduleType)
	}

	m := &schedule.ScheduledMeeting{
		ID:            uuid.New(),
		UserID:        userID,
		MeetURL:       req.MeetURL,
		BotName:       req.BotName,
		ScheduleType:  kind,
		ScheduledTime: req.ScheduledTime,
		DaysOfWeek:    req.DaysOfWeek,
		IsActive:      true,
	}
	m.NextTriggerAt = schedule.NextTrigger(m, time.Now(), schedule.DefaultLeadTime)

	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := s.scheduler.Schedule(m, bearer); err != nil {
		return nil, err
	}

	log.Printf("[SCHEDULES]: Created schedule %s for user %s", m.ID, userID)
	return m, nil
}

// List returns a user's schedules.
func (s *service) List(ctx context.Context, userID string) ([]*schedule.ScheduledMeeting, error) {
	return s.store.ListByUser(ctx, userID)
}

// Delete removes a schedule from the store and the scheduler.
func (s *service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.UserID != userID {
		return schedule.ErrNotFound
	}

	s.scheduler.Remove(id.String())
	return s.store.Delete(ctx, id)
}

// Toggle flips a schedule between active and inactive, keeping the
// scheduler and the computed next-trigger time consistent.
func (s *service) Toggle(ctx context.Context, userID, bearer string, id uuid.UUID) (*schedule.ScheduledMeeting, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, schedule.ErrNotFound
	}

	m.IsActive = !m.IsActive
	if m.IsActive {
		m.NextTriggerAt = schedule.NextTrigger(m, time.Now(), schedule.DefaultLeadTime)
		if err := s.scheduler.Schedule(m, bearer); err != nil {
			return nil, err
		}
	} else {
		s.scheduler.Remove(id.String())
		m.NextTriggerAt = nil
	}

	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CalendarEvents lists upcoming events carrying meeting links, from either
// a Google access token or an ICS feed URL.
func (s *service) CalendarEvents(ctx context.Context, googleToken, feedURL string, daysAhead int) ([]calendar.Event, error) {
	until := time.Now().AddDate(0, 0, daysAhead)

	if feedURL != "" {
		return s.feeds.UpcomingMeetEvents(ctx, feedURL, until)
	}
	if googleToken != "" {
		return s.google.UpcomingMeetEvents(ctx, googleToken, until)
	}
	return nil, fmt.Errorf("no calendar source provided")
}

// SyncCalendar creates CALENDAR schedules for upcoming events that carry a
// meeting link and are not already scheduled.
func (s *service) SyncCalendar(ctx context.Context, userID, bearer, googleToken, feedURL string, daysAhead int) ([]*schedule.ScheduledMeeting, error) {
	events, err := s.CalendarEvents(ctx, googleToken, feedURL, daysAhead)
	if err != nil {
		return nil, err
	}

	created := make([]*schedule.ScheduledMeeting, 0)
	for _, event := range events {
		if _, err := s.store.FindByCalendarEvent(ctx, userID, event.ID); err == nil {
			continue
		}

		eventID := event.ID
		start := event.Start
		m := &schedule.ScheduledMeeting{
			ID:              uuid.New(),
			UserID:          userID,
			MeetURL:         event.MeetLink,
			BotName:         fmt.Sprintf("Bot - %s", truncate(event.Summary, 20)),
			ScheduleType:    schedule.ScheduleCalendar,
			ScheduledTime:   &start,
			CalendarEventID: &eventID,
			IsActive:        true,
		}
		m.NextTriggerAt = schedule.NextTrigger(m, time.Now(), schedule.DefaultLeadTime)

		if err := s.store.Create(ctx, m); err != nil {
			log.Printf("[SCHEDULES]: Could not persist schedule for event %s: %v", event.ID, err)
			continue
		}
		if err := s.scheduler.Schedule(m, bearer); err != nil {
			log.Printf("[SCHEDULES]: Could not register schedule %s: %v", m.ID, err)
			continue
		}
		created = append(created, m)
	}

	log.Printf("[SCHEDULES]: Calendar sync created %d schedules for user %s", len(created), userID)
	return created, nil
}

// Jobs lists the scheduler's registered jobs.
func (s *service) Jobs() []schedule.JobInfo {
	return s.scheduler.Jobs()
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
