package schedule

import (
	"time"

	"github.com/teambition/rrule-go"
)

// rruleWeekdays maps the model's 0=Monday weekday encoding onto rrule
// weekday constants.
var rruleWeekdays = []rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

// NextTrigger computes the next time a schedule should fire, lead time
// already subtracted. Returns nil when the rule cannot produce a future
// firing (a once schedule in the past, or an unparsable rule).
func NextTrigger(m *ScheduledMeeting, now time.Time, lead time.Duration) *time.Time {
	if m.ScheduledTime == nil {
		return nil
	}
	scheduled := m.ScheduledTime.UTC()
	now = now.UTC()

	switch m.ScheduleType {
	case ScheduleOnce, ScheduleCalendar:
		fireAt := scheduled.Add(-lead)
		if !fireAt.After(now) {
			return nil
		}
		return &fireAt

	case ScheduleDaily:
		return nextRecurring(rrule.ROption{
			Freq: rrule.DAILY,
		}, scheduled, now, lead)

	case ScheduleWeekly:
		days, err := m.Weekdays()
		if err != nil || len(days) == 0 {
			return nil
		}
		byweekday := make([]rrule.Weekday, 0, len(days))
		for _, day := range days {
			byweekday = append(byweekday, rruleWeekdays[day])
		}
		return nextRecurring(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: byweekday,
		}, scheduled, now, lead)

	default:
		return nil
	}
}

// nextRecurring finds the first rule occurrence whose lead-adjusted firing
// time is still in the future. The recurrence anchor carries the scheduled
// hour:minute; its date is pushed back a week so occurrences around "now"
// are always generated.
func nextRecurring(opt rrule.ROption, scheduled, now time.Time, lead time.Duration) *time.Time {
	anchor := now.AddDate(0, 0, -7)
	opt.Dtstart = time.Date(anchor.Year(), anchor.Month(), anchor.Day(),
		scheduled.Hour(), scheduled.Minute(), 0, 0, time.UTC)

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}

	occurrence := rule.After(now.Add(lead), false)
	if occurrence.IsZero() {
		return nil
	}

	fireAt := occurrence.Add(-lead)
	return &fireAt
}
