// Package applecal implements the Apple Calendar integration over iCloud
// CalDAV. Raw VEVENT data is shaped into untyped payloads and passed through
// the schema layer, so malformed provider records are rejected rather than
// silently coerced.
package applecal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"tasksync/internal/integrations"
	"tasksync/internal/integrations/icloud"
	"tasksync/internal/models"
	"tasksync/internal/schema"
	"tasksync/internal/settings"
)

// Key is the integration's registry key. Note it differs from the settings
// section path ("integrations.appleCalendar").
const Key = "apple-calendar"

const defaultWindowDays = 7

// Config returns the registry entry for the Apple Calendar integration.
func Config() integrations.Config {
	return integrations.Config{
		Key:  Key,
		Name: "Apple Calendar",
		Icon: "calendar",
		NewService: func(cfg settings.Settings, logger *slog.Logger) (integrations.Service, error) {
			return NewClient(cfg.Integrations.AppleCalendar, logger)
		},
		IsEnabled: func(cfg settings.Settings) bool {
			return cfg.Integrations.AppleCalendar.Enabled
		},
		SettingsPath: func() string {
			return settings.SectionAppleCalendar
		},
	}
}

// Client fetches calendars and events from iCloud.
type Client struct {
	session *icloud.Session
	cfg     settings.AppleCalendarSettings
	logger  *slog.Logger
}

// NewClient creates the client from settings. Credentials come from the
// environment, never from the settings file.
func NewClient(cfg settings.AppleCalendarSettings, logger *slog.Logger) (*Client, error) {
	session, err := icloud.NewSession(os.Getenv("ICLOUD_USERNAME"), os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create iCloud session: %w", err)
	}
	return &Client{session: session, cfg: cfg, logger: logger}, nil
}

// Key returns the registry key.
func (c *Client) Key() string {
	return Key
}

// Calendars lists the account's event calendars, validated through the
// schema layer.
func (c *Client) Calendars(ctx context.Context) ([]models.Calendar, error) {
	collections, err := c.session.Calendars(ctx)
	if err != nil {
		return nil, err
	}

	payloads := make([]map[string]any, 0, len(collections))
	for _, col := range collections {
		if !icloud.SupportsComponent(col, ical.CompEvent) {
			continue
		}
		if len(c.cfg.CalendarNames) > 0 && !slices.Contains(c.cfg.CalendarNames, col.Name) {
			continue
		}
		payload := map[string]any{
			"id":      col.Path,
			"name":    col.Name,
			"account": c.session.Username(),
			"type":    "caldav",
			"visible": true,
		}
		if col.Description != "" {
			payload["description"] = col.Description
		}
		payloads = append(payloads, payload)
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar payloads: %w", err)
	}
	return schema.ParseCalendars(data)
}

// Events fetches the events of one calendar inside the configured sync
// window. Events failing schema validation are logged and skipped so one
// bad record does not sink the whole calendar.
func (c *Client) Events(ctx context.Context, cal models.Calendar) ([]models.CalendarEvent, error) {
	window := c.cfg.WindowDays
	if window <= 0 {
		window = defaultWindowDays
	}
	now := time.Now().UTC()
	comps, err := c.session.QueryComponents(ctx, cal.ID, ical.CompEvent, now, now.AddDate(0, 0, window))
	if err != nil {
		return nil, err
	}

	var events []models.CalendarEvent
	for _, comp := range comps {
		payload := eventPayload(comp, cal.ID)
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		ev, err := schema.ParseCalendarEvent(data)
		if err != nil {
			c.logger.Warn("Rejected calendar event payload", "calendar", cal.Name, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// FetchTasks converts upcoming events into tasks.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	calendars, err := c.Calendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	now := time.Now().UTC()
	var tasks []models.Task
	for _, cal := range calendars {
		events, err := c.Events(ctx, cal)
		if err != nil {
			c.logger.Error("Could not fetch events for calendar", "calendar", cal.Name, "error", err)
			continue
		}
		for _, ev := range events {
			tasks = append(tasks, integrations.TaskFromEvent(Key, ev, now, c.logger))
		}
	}
	c.logger.Info("Fetched Apple Calendar events.", "calendars", len(calendars), "tasks", len(tasks))
	return tasks, nil
}

// eventPayload shapes one VEVENT component into the untyped structure the
// schema layer validates.
func eventPayload(comp *ical.Component, calendarID string) map[string]any {
	payload := map[string]any{
		"calendarId":   calendarID,
		"status":       "confirmed",
		"availability": "busy",
		"allDay":       false,
	}

	setText(payload, "id", comp, ical.PropUID)
	setText(payload, "title", comp, ical.PropSummary)
	setText(payload, "location", comp, ical.PropLocation)
	setText(payload, "url", comp, ical.PropURL)
	setText(payload, "recurrenceRule", comp, ical.PropRecurrenceRule)
	setTime(payload, "startDate", comp, ical.PropDateTimeStart)
	setTime(payload, "endDate", comp, ical.PropDateTimeEnd)
	setTime(payload, "createdAt", comp, ical.PropCreated)
	setTime(payload, "modifiedAt", comp, ical.PropLastModified)

	if p := comp.Props.Get(ical.PropDateTimeStart); p != nil && p.ValueType() == ical.ValueDate {
		payload["allDay"] = true
	}
	if p := comp.Props.Get(ical.PropStatus); p != nil {
		switch strings.ToUpper(p.Value) {
		case "TENTATIVE":
			payload["status"] = "tentative"
		case "CANCELLED":
			payload["status"] = "cancelled"
		}
	}
	if p := comp.Props.Get(ical.PropTransparency); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		payload["availability"] = "free"
	}

	if attendees := attendeePayloads(comp); len(attendees) > 0 {
		payload["attendees"] = attendees
	}
	if p := comp.Props.Get(ical.PropOrganizer); p != nil {
		payload["organizer"] = participantPayload(p, true)
	}
	return payload
}

func attendeePayloads(comp *ical.Component) []map[string]any {
	props := comp.Props.Values(ical.PropAttendee)
	payloads := make([]map[string]any, 0, len(props))
	for i := range props {
		payloads = append(payloads, participantPayload(&props[i], false))
	}
	return payloads
}

func participantPayload(p *ical.Prop, organizer bool) map[string]any {
	payload := map[string]any{
		"email":     strings.TrimPrefix(strings.TrimPrefix(p.Value, "mailto:"), "MAILTO:"),
		"status":    rsvpStatus(p.Params.Get("PARTSTAT")),
		"organizer": organizer,
	}
	if organizer {
		payload["status"] = string(models.RSVPAccepted)
	}
	if name := p.Params.Get("CN"); name != "" {
		payload["name"] = name
	}
	return payload
}

func rsvpStatus(partstat string) string {
	switch strings.ToUpper(partstat) {
	case "ACCEPTED":
		return string(models.RSVPAccepted)
	case "DECLINED":
		return string(models.RSVPDeclined)
	case "TENTATIVE":
		return string(models.RSVPTentative)
	}
	return string(models.RSVPNeedsAction)
}

func setText(payload map[string]any, key string, comp *ical.Component, prop string) {
	if p := comp.Props.Get(prop); p != nil && p.Value != "" {
		payload[key] = p.Value
	}
}

func setTime(payload map[string]any, key string, comp *ical.Component, prop string) {
	p := comp.Props.Get(prop)
	if p == nil {
		return
	}
	if t, err := p.DateTime(time.UTC); err == nil && !t.IsZero() {
		payload[key] = t
	}
}
