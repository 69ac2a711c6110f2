package calendar

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	ics "github.com/arran4/golang-ical"
)

var meetLinkPattern = regexp.MustCompile(`https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}`)

// ICSService reads upcoming events from an ICS feed URL, for calendars not
// reachable through the Google API.
type ICSService struct {
	httpClient *http.Client
}

// NewICSService creates an ICS feed lookup service.
func NewICSService() *ICSService {
	return &ICSService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UpcomingMeetEvents fetches the feed and returns events between now and
// until whose location, description, or URL carries a meeting link.
func (s *ICSService) UpcomingMeetEvents(ctx context.Context, feedURL string, until time.Time) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ICS feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ICS feed returned %d", resp.StatusCode)
	}

	parsed, err := ics.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS feed: %w", err)
	}

	now := time.Now().UTC()

	var events []Event
	for _, item := range parsed.Events() {
		start, err := item.GetStartAt()
		if err != nil || start.Before(now) || start.After(until) {
			continue
		}

		link := icsMeetLink(item)
		if link == "" {
			continue
		}

		end, _ := item.GetEndAt()

		summary := ""
		if prop := item.GetProperty(ics.ComponentPropertySummary); prop != nil {
			summary = prop.Value
		}

		events = append(events, Event{
			ID:       item.Id(),
			Summary:  summary,
			Start:    start.UTC(),
			End:      end.UTC(),
			MeetLink: link,
		})
	}

	return events, nil
}

// icsMeetLink scans the fields where conferencing links usually hide.
func icsMeetLink(item *ics.VEvent) string {
	for _, name := range []ics.ComponentProperty{
		ics.ComponentPropertyLocation,
		ics.ComponentPropertyUrl,
		ics.ComponentPropertyDescription,
	} {
		if prop := item.GetProperty(name); prop != nil {
			if link := meetLinkPattern.FindString(prop.Value); link != "" {
				return link
			}
		}
	}
	return ""
}
