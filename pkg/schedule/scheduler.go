package schedule

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultLeadTime is how far before the meeting time a join is triggered.
const DefaultLeadTime = time.Minute

// TriggerFunc performs the outbound trigger call when a job fires. The
// user id and bearer token carry the schedule owner's identity and
// authorization context.
type TriggerFunc func(meetURL, botName, userID, bearer string) error

// job is one registered trigger rule. Recurring kinds live in the cron
// instance; one-shot kinds hold a timer.
type job struct {
	id      string
	kind    ScheduleType
	meetURL string
	botName string
	userID  string
	bearer  string

	entryID cron.EntryID // daily/weekly
	timer   *time.Timer  // once/calendar
	runAt   time.Time    // once/calendar firing time
}

// JobInfo describes a registered job for observability surfaces.
type JobInfo struct {
	ID      string       `json:"id"`
	Type    ScheduleType `json:"type"`
	MeetURL string       `json:"meet_url"`
	BotName string       `json:"bot_name"`
	NextRun time.Time    `json:"next_run,omitzero"`
}

// Scheduler maintains named time-triggered jobs that call the backend's
// trigger boundary at the right moment. Registering an existing id replaces
// the prior job; removing a missing id is a no-op. Every firing runs on its
// own goroutine so the timer machinery is never blocked by network I/O.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]*job
	lead    time.Duration
	trigger TriggerFunc
	stopped bool
}

// NewScheduler creates a scheduler firing through the given trigger
// function with the default lead time.
func NewScheduler(trigger TriggerFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		jobs:    make(map[string]*job),
		lead:    DefaultLeadTime,
		trigger: trigger,
	}
}

// SetLeadTime overrides the lead time for jobs registered afterwards.
func (s *Scheduler) SetLeadTime(lead time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lead = lead
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Print("[SCHEDULER]: started")
}

// Stop halts the cron machinery, waits for in-flight cron jobs, and stops
// all one-shot timers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, j := range s.jobs {
		if j.timer != nil {
			j.timer.Stop()
		}
	}
	log.Print("[SCHEDULER]: stopped")
}

// Schedule registers a job for the given meeting, dispatching on its
// schedule type. An existing job with the same id is replaced.
func (s *Scheduler) Schedule(m *ScheduledMeeting, bearer string) error {
	id := m.ID.String()

	switch m.ScheduleType {
	case ScheduleOnce, ScheduleCalendar:
		if m.ScheduledTime == nil {
			return fmt.Errorf("schedule %s has no scheduled time", id)
		}
		return s.ScheduleOnce(id, m.MeetURL, m.BotName, m.UserID, bearer, *m.ScheduledTime)

	case ScheduleDaily:
		if m.ScheduledTime == nil {
			return fmt.Errorf("schedule %s has no scheduled time", id)
		}
		return s.ScheduleDaily(id, m.MeetURL, m.BotName, m.UserID, bearer,
			m.ScheduledTime.UTC().Hour(), m.ScheduledTime.UTC().Minute())

	case ScheduleWeekly:
		if m.ScheduledTime == nil {
			return fmt.Errorf("schedule %s has no scheduled time", id)
		}
		days, err := m.Weekdays()
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return fmt.Errorf("schedule %s has no weekdays", id)
		}
		return s.ScheduleWeekly(id, m.MeetURL, m.BotName, m.UserID, bearer, days,
			m.ScheduledTime.UTC().Hour(), m.ScheduledTime.UTC().Minute())

	default:
		return fmt.Errorf("unsupported schedule type %q", m.ScheduleType)
	}
}

// ScheduleOnce registers a one-shot job firing at runTime minus the lead
// time. A run time already in the past fires immediately.
func (s *Scheduler) ScheduleOnce(id, meetURL, botName, userID, bearer string, runTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)

	fireAt := runTime.Add(-s.lead)
	j := &job{
		id:      id,
		kind:    ScheduleOnce,
		meetURL: meetURL,
		botName: botName,
		userID:  userID,
		bearer:  bearer,
		runAt:   fireAt,
	}

	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	j.timer = time.AfterFunc(delay, func() { s.fire(j) })
	s.jobs[id] = j

	log.Printf("[SCHEDULER]: scheduled one-shot job %s for %s", id, fireAt.Format(time.RFC3339))
	return nil
}

// ScheduleDaily registers a job firing every day at hour:minute minus the
// lead time.
func (s *Scheduler) ScheduleDaily(id, meetURL, botName, userID, bearer string, hour, minute int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fireHour, fireMinute, _ := leadAdjusted(hour, minute, s.lead)
	spec := fmt.Sprintf("%d %d * * *", fireMinute, fireHour)
	return s.addCronLocked(id, ScheduleDaily, meetURL, botName, userID, bearer, spec)
}

// ScheduleWeekly registers a job firing on the given weekdays (0=Monday)
// at hour:minute minus the lead time.
func (s *Scheduler) ScheduleWeekly(id, meetURL, botName, userID, bearer string, days []int, hour, minute int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fireHour, fireMinute, crossedMidnight := leadAdjusted(hour, minute, s.lead)

	// Cron weekdays are 0=Sunday; shift back a day when the lead time
	// crossed midnight.
	specDays := ""
	for i, day := range days {
		if crossedMidnight {
			day = (day + 6) % 7
		}
		cronDay := (day + 1) % 7
		if i > 0 {
			specDays += ","
		}
		specDays += fmt.Sprint(cronDay)
	}

	spec := fmt.Sprintf("%d %d * * %s", fireMinute, fireHour, specDays)
	return s.addCronLocked(id, ScheduleWeekly, meetURL, botName, userID, bearer, spec)
}

// addCronLocked replaces any existing job with id and registers a cron
// entry. Caller must hold s.mu.
func (s *Scheduler) addCronLocked(id string, kind ScheduleType, meetURL, botName, userID, bearer, spec string) error {
	s.removeLocked(id)

	j := &job{
		id:      id,
		kind:    kind,
		meetURL: meetURL,
		botName: botName,
		userID:  userID,
		bearer:  bearer,
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.fire(j) })
	if err != nil {
		return fmt.Errorf("failed to register cron job %s: %w", id, err)
	}
	j.entryID = entryID
	s.jobs[id] = j

	log.Printf("[SCHEDULER]: scheduled %s job %s (%s)", kind, id, spec)
	return nil
}

// Remove deregisters a job. Removing an unknown id is not an error.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Scheduler) removeLocked(id string) {
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	if j.entryID != 0 {
		s.cron.Remove(j.entryID)
	}
	delete(s.jobs, id)
}

// fire performs the outbound trigger call for a job. Cron and timer
// callbacks both arrive on their own goroutines, so network I/O here never
// blocks the timer machinery.
func (s *Scheduler) fire(j *job) {
	s.mu.Lock()
	if s.stopped || s.jobs[j.id] != j {
		s.mu.Unlock()
		return
	}
	if j.timer != nil {
		// one-shot jobs are spent after firing
		delete(s.jobs, j.id)
	}
	s.mu.Unlock()

	log.Printf("[SCHEDULER]: firing job %s for %s", j.id, j.meetURL)
	if err := s.trigger(j.meetURL, j.botName, j.userID, j.bearer); err != nil {
		log.Printf("[SCHEDULER]: trigger for job %s failed: %v", j.id, err)
		return
	}
	log.Printf("[SCHEDULER]: job %s triggered successfully", j.id)
}

// Jobs lists all registered jobs with their next run times.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		infos = append(infos, JobInfo{
			ID:      j.id,
			Type:    j.kind,
			MeetURL: j.meetURL,
			BotName: j.botName,
			NextRun: s.nextRunLocked(j),
		})
	}
	return infos
}

// NextRun reports when a job will next fire.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return s.nextRunLocked(j), true
}

func (s *Scheduler) nextRunLocked(j *job) time.Time {
	if j.timer != nil {
		return j.runAt
	}
	return s.cron.Entry(j.entryID).Next
}

// leadAdjusted subtracts the lead time from a wall-clock hour:minute and
// reports whether the subtraction crossed midnight.
func leadAdjusted(hour, minute int, lead time.Duration) (int, int, bool) {
	t := time.Date(2000, 1, 2, hour, minute, 0, 0, time.UTC).Add(-lead)
	return t.Hour(), t.Minute(), t.Day() != 2
}
