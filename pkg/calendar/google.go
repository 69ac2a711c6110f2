package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxEventResults = 50

// Event is a calendar entry that carries a joinable meeting link.
type Event struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	MeetLink string    `json:"meet_link"`
	HTMLLink string    `json:"html_link,omitempty"`
}

// GoogleService reads upcoming events from a user's primary Google
// Calendar. Tokens are supplied per call; OAuth token management itself is
// the auth module's concern.
type GoogleService struct{}

// NewGoogleService creates a Google Calendar lookup service.
func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

// UpcomingMeetEvents lists events between now and until that have a meeting
// link attached, soonest first.
func (s *GoogleService) UpcomingMeetEvents(ctx context.Context, accessToken string, until time.Time) ([]Event, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	now := time.Now().UTC()
	result, err := service.Events.List("primary").
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(until.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	var events []Event
	for _, item := range result.Items {
		link := meetLinkOf(item)
		if link == "" {
			continue
		}

		// All-day events have no DateTime and cannot be joined at a
		// specific moment.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}

		var end time.Time
		if item.End != nil && item.End.DateTime != "" {
			end, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}

		events = append(events, Event{
			ID:       item.Id,
			Summary:  item.Summary,
			Start:    start,
			End:      end,
			MeetLink: link,
			HTMLLink: item.HtmlLink,
		})
	}

	return events, nil
}

// meetLinkOf extracts the video entry point of an event.
func meetLinkOf(item *gcal.Event) string {
	if item.HangoutLink != "" {
		return item.HangoutLink
	}
	if item.ConferenceData != nil {
		for _, entry := range item.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" && entry.Uri != "" {
				return entry.Uri
			}
		}
	}
	return ""
}
