// Package applereminders implements the Apple Reminders integration.
// iCloud stores reminders as VTODO components in CalDAV collections, so the
// client shares the calendar session and differs only in the component type
// and payload shape.
package applereminders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"tasksync/internal/integrations"
	"tasksync/internal/integrations/icloud"
	"tasksync/internal/models"
	"tasksync/internal/schema"
	"tasksync/internal/settings"
)

// Key is the integration's registry key; the settings section path is
// "integrations.appleReminders".
const Key = "apple-reminders"

// Config returns the registry entry for the Apple Reminders integration.
func Config() integrations.Config {
	return integrations.Config{
		Key:  Key,
		Name: "Apple Reminders",
		Icon: "check-circle",
		NewService: func(cfg settings.Settings, logger *slog.Logger) (integrations.Service, error) {
			return NewClient(cfg.Integrations.AppleReminders, logger)
		},
		IsEnabled: func(cfg settings.Settings) bool {
			return cfg.Integrations.AppleReminders.Enabled
		},
		SettingsPath: func() string {
			return settings.SectionAppleReminders
		},
	}
}

// Client fetches reminder lists and reminders from iCloud.
type Client struct {
	session *icloud.Session
	cfg     settings.AppleRemindersSettings
	logger  *slog.Logger
}

// NewClient creates the client from settings.
func NewClient(cfg settings.AppleRemindersSettings, logger *slog.Logger) (*Client, error) {
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

// Lists returns the account's reminder lists, validated through the schema
// layer.
func (c *Client) Lists(ctx context.Context) ([]models.ReminderList, error) {
	collections, err := c.session.Calendars(ctx)
	if err != nil {
		return nil, err
	}

	payloads := make([]map[string]any, 0, len(collections))
	for _, col := range collections {
		if !icloud.SupportsComponent(col, ical.CompToDo) {
			continue
		}
		if len(c.cfg.ListNames) > 0 && !slices.Contains(c.cfg.ListNames, col.Name) {
			continue
		}
		payloads = append(payloads, map[string]any{
			"id":   col.Path,
			"name": col.Name,
		})
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list payloads: %w", err)
	}
	return schema.ParseReminderLists(data)
}

// Reminders fetches the reminders of one list. Records failing schema
// validation are logged and skipped.
func (c *Client) Reminders(ctx context.Context, list models.ReminderList) ([]models.Reminder, error) {
	comps, err := c.session.QueryComponents(ctx, list.ID, ical.CompToDo, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	var reminders []models.Reminder
	for _, comp := range comps {
		payload := reminderPayload(comp, list.ID)
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
		}
		rem, err := schema.ParseReminder(data)
		if err != nil {
			c.logger.Warn("Rejected reminder payload", "list", list.Name, "error", err)
			continue
		}
		if rem.Completed && !c.cfg.IncludeCompleted {
			continue
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}

// FetchTasks converts reminders into tasks.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	lists, err := c.Lists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder lists: %w", err)
	}

	var tasks []models.Task
	for _, list := range lists {
		reminders, err := c.Reminders(ctx, list)
		if err != nil {
			c.logger.Error("Could not fetch reminders for list", "list", list.Name, "error", err)
			continue
		}
		for _, rem := range reminders {
			tasks = append(tasks, reminderToTask(rem))
		}
	}
	c.logger.Info("Fetched Apple Reminders.", "lists", len(lists), "tasks", len(tasks))
	return tasks, nil
}

func reminderToTask(rem models.Reminder) models.Task {
	symbol := " "
	if rem.Completed {
		symbol = "x"
	}

	task := models.Task{
		Source:       Key,
		ExternalID:   rem.ID,
		Title:        rem.Title,
		StatusSymbol: symbol,
		Due:          rem.DueDate,
		Priority:     rem.Priority,
		CreatedAt:    rem.CreatedAt,
		ModifiedAt:   rem.ModifiedAt,
	}
	if rem.Notes != nil {
		task.Notes = *rem.Notes
	}
	if rem.URL != nil {
		task.URL = *rem.URL
	}
	return task
}

// reminderPayload shapes one VTODO component into the untyped structure the
// schema layer validates.
func reminderPayload(comp *ical.Component, listID string) map[string]any {
	payload := map[string]any{
		"listId":    listID,
		"completed": false,
		"priority":  0,
	}

	setText(payload, "id", comp, ical.PropUID)
	setText(payload, "title", comp, ical.PropSummary)
	setText(payload, "notes", comp, ical.PropDescription)
	setText(payload, "url", comp, ical.PropURL)
	setTime(payload, "dueDate", comp, ical.PropDue)
	setTime(payload, "createdAt", comp, ical.PropCreated)
	setTime(payload, "modifiedAt", comp, ical.PropLastModified)

	if p := comp.Props.Get(ical.PropStatus); p != nil && strings.EqualFold(p.Value, "COMPLETED") {
		payload["completed"] = true
	}
	if p := comp.Props.Get(ical.PropCompleted); p != nil {
		payload["completed"] = true
		if t, err := p.DateTime(time.UTC); err == nil && !t.IsZero() {
			payload["completionDate"] = t
		}
	}
	if p := comp.Props.Get(ical.PropPriority); p != nil {
		if n, err := strconv.Atoi(p.Value); err == nil && n >= 0 && n <= 9 {
			payload["priority"] = n
		}
	}
	if p := comp.Props.Get(ical.PropDue); p != nil && p.ValueType() == ical.ValueDate {
		payload["allDay"] = true
	}
	return payload
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
