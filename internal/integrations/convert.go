package integrations

import (
	"log/slog"
	"time"

	"tasksync/internal/models"
	"tasksync/internal/rrule"
)

// TaskFromEvent converts a validated calendar event into a task. The due
// date is the next occurrence for recurring events, otherwise the start
// date. Cancelled events carry the canonical cancelled symbol.
func TaskFromEvent(source string, ev models.CalendarEvent, now time.Time, logger *slog.Logger) models.Task {
	due := ev.StartDate
	if ev.IsRecurring() {
		next, err := rrule.NextOccurrence(*ev.RecurrenceRule, ev.StartDate, now)
		if err != nil {
			logger.Warn("Could not evaluate recurrence rule", "event", ev.ID, "error", err)
		} else if next != nil {
			due = *next
		}
	}

	symbol := " "
	if ev.Status == models.EventCancelled {
		symbol = "-"
	}

	task := models.Task{
		Source:       source,
		ExternalID:   ev.ID,
		Title:        ev.Title,
		StatusSymbol: symbol,
		Due:          &due,
		CreatedAt:    ev.CreatedAt,
		ModifiedAt:   ev.ModifiedAt,
	}
	if ev.Location != nil {
		task.Notes = *ev.Location
	}
	if ev.URL != nil {
		task.URL = *ev.URL
	}
	return task
}
