// Package googlecal implements the Google Calendar integration. Like the
// CalDAV integrations, provider records are shaped into untyped payloads and
// validated through the schema layer before use.
package googlecal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"tasksync/internal/integrations"
	"tasksync/internal/models"
	"tasksync/internal/schema"
	"tasksync/internal/settings"
)

// Key is the integration's registry key; the settings section path is
// "integrations.googleCalendar".
const Key = "google-calendar"

const defaultWindowDays = 7

// Config returns the registry entry for the Google Calendar integration.
func Config() integrations.Config {
	return integrations.Config{
		Key:  Key,
		Name: "Google Calendar",
		Icon: "calendar-days",
		NewService: func(cfg settings.Settings, logger *slog.Logger) (integrations.Service, error) {
			return NewClient(context.Background(), cfg.Integrations.GoogleCalendar, logger)
		},
		IsEnabled: func(cfg settings.Settings) bool {
			return cfg.Integrations.GoogleCalendar.Enabled
		},
		SettingsPath: func() string {
			return settings.SectionGoogleCalendar
		},
	}
}

// Client fetches events through the Google Calendar API.
type Client struct {
	service *calendar.Service
	cfg     settings.GoogleCalendarSettings
	logger  *slog.Logger
}

// NewClient creates an authenticated client for the account named in
// settings, using the token saved by the auth command.
func NewClient(ctx context.Context, cfg settings.GoogleCalendarSettings, logger *slog.Logger) (*Client, error) {
	account := cfg.Account
	if account == "" {
		accounts, err := TokenAccounts()
		if err != nil || len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		account = accounts[0]
	}

	config, err := OAuthConfig(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", account)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", account, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{service: service, cfg: cfg, logger: logger}, nil
}

// Key returns the registry key.
func (c *Client) Key() string {
	return Key
}

// Events fetches upcoming events from one calendar, validated through the
// schema layer. Invalid records are logged and skipped.
func (c *Client) Events(ctx context.Context, calendarID string) ([]models.CalendarEvent, error) {
	window := c.cfg.WindowDays
	if window <= 0 {
		window = defaultWindowDays
	}
	now := time.Now().UTC()

	result, err := c.service.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(false).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, window).Format(time.RFC3339)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	var events []models.CalendarEvent
	for _, item := range result.Items {
		payload := eventPayload(item, calendarID)
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		ev, err := schema.ParseCalendarEvent(data)
		if err != nil {
			c.logger.Warn("Rejected calendar event payload", "calendarID", calendarID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// FetchTasks converts upcoming events into tasks.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	calendarIDs := c.cfg.CalendarIDs
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}

	now := time.Now().UTC()
	var tasks []models.Task
	for _, calID := range calendarIDs {
		events, err := c.Events(ctx, calID)
		if err != nil {
			c.logger.Error("Could not fetch events for calendar", "calendarID", calID, "error", err)
			continue
		}
		for _, ev := range events {
			tasks = append(tasks, integrations.TaskFromEvent(Key, ev, now, c.logger))
		}
	}
	c.logger.Info("Fetched Google Calendar events.", "calendars", len(calendarIDs), "tasks", len(tasks))
	return tasks, nil
}

// eventPayload shapes one API event into the untyped structure the schema
// layer validates.
func eventPayload(item *calendar.Event, calendarID string) map[string]any {
	payload := map[string]any{
		"calendarId":   calendarID,
		"status":       "confirmed",
		"availability": "busy",
		"allDay":       false,
	}

	if item.Id != "" {
		payload["id"] = item.Id
	}
	if item.Summary != "" {
		payload["title"] = item.Summary
	}
	if item.Location != "" {
		payload["location"] = item.Location
	}
	if item.HtmlLink != "" {
		payload["url"] = item.HtmlLink
	}
	switch item.Status {
	case "tentative":
		payload["status"] = "tentative"
	case "cancelled":
		payload["status"] = "cancelled"
	}
	if item.Transparency == "transparent" {
		payload["availability"] = "free"
	}

	setEventTime(payload, "startDate", item.Start)
	setEventTime(payload, "endDate", item.End)
	if item.Start != nil && item.Start.Date != "" {
		payload["allDay"] = true
	}
	if t, err := time.Parse(time.RFC3339, item.Created); err == nil {
		payload["createdAt"] = t
	}
	if t, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		payload["modifiedAt"] = t
	}
	for _, rule := range item.Recurrence {
		if strings.HasPrefix(rule, "RRULE:") {
			payload["recurrenceRule"] = rule
			break
		}
	}

	if len(item.Attendees) > 0 {
		attendees := make([]map[string]any, 0, len(item.Attendees))
		for _, a := range item.Attendees {
			attendees = append(attendees, attendeePayload(a.Email, a.DisplayName, a.ResponseStatus, a.Organizer))
		}
		payload["attendees"] = attendees
	}
	if item.Organizer != nil {
		payload["organizer"] = attendeePayload(item.Organizer.Email, item.Organizer.DisplayName, "accepted", true)
	}
	return payload
}

func attendeePayload(email, name, responseStatus string, organizer bool) map[string]any {
	payload := map[string]any{
		"email":     email,
		"status":    rsvpStatus(responseStatus),
		"organizer": organizer,
	}
	if name != "" {
		payload["name"] = name
	}
	return payload
}

func rsvpStatus(responseStatus string) string {
	switch responseStatus {
	case "accepted":
		return string(models.RSVPAccepted)
	case "declined":
		return string(models.RSVPDeclined)
	case "tentative":
		return string(models.RSVPTentative)
	}
	return string(models.RSVPNeedsAction)
}

func setEventTime(payload map[string]any, key string, edt *calendar.EventDateTime) {
	if edt == nil {
		return
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			payload[key] = t
		}
		return
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			payload[key] = t
		}
	}
}
