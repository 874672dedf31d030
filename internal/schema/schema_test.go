package schema

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/models"
)

func validEventJSON() string {
	return `{
		"id": "ev-1",
		"title": "Sprint planning",
		"startDate": "2026-03-02T10:00:00Z",
		"endDate": "2026-03-02T11:00:00Z",
		"allDay": false,
		"status": "confirmed",
		"availability": "busy",
		"calendarId": "cal-1",
		"location": "Room 4",
		"url": "https://example.com/meet",
		"attendees": [
			{"name": "Ana", "email": "ana@example.com", "status": "accepted", "organizer": false},
			{"email": "bo@example.com", "status": "needs-action", "organizer": false}
		],
		"organizer": {"email": "lead@example.com", "status": "accepted", "organizer": true},
		"recurrenceRule": "FREQ=WEEKLY",
		"createdAt": "2026-01-01T08:00:00Z"
	}`
}

func TestParseCalendarEvent(t *testing.T) {
	t.Run("valid payload round-trips field values", func(t *testing.T) {
		ev, err := ParseCalendarEvent([]byte(validEventJSON()))
		require.NoError(t, err)

		assert.Equal(t, "ev-1", ev.ID)
		assert.Equal(t, "Sprint planning", ev.Title)
		assert.True(t, ev.StartDate.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
		assert.True(t, ev.EndDate.Equal(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)))
		assert.False(t, ev.AllDay)
		assert.Equal(t, models.EventConfirmed, ev.Status)
		assert.Equal(t, models.AvailabilityBusy, ev.Availability)
		assert.Equal(t, "cal-1", ev.CalendarID)
		require.NotNil(t, ev.Location)
		assert.Equal(t, "Room 4", *ev.Location)
		require.Len(t, ev.Attendees, 2)
		require.NotNil(t, ev.Attendees[0].Name)
		assert.Equal(t, "Ana", *ev.Attendees[0].Name)
		assert.Equal(t, "ana@example.com", ev.Attendees[0].Email)
		assert.Equal(t, models.RSVPAccepted, ev.Attendees[0].Status)
		assert.Nil(t, ev.Attendees[1].Name)
		require.NotNil(t, ev.Organizer)
		assert.True(t, ev.Organizer.Organizer)
		require.NotNil(t, ev.RecurrenceRule)
		assert.Equal(t, "FREQ=WEEKLY", *ev.RecurrenceRule)
		require.NotNil(t, ev.CreatedAt)
		assert.Nil(t, ev.ModifiedAt)
	})

	t.Run("missing id is identified", func(t *testing.T) {
		_, err := ParseCalendarEvent([]byte(`{
			"title": "x",
			"startDate": "2026-03-02T10:00:00Z",
			"endDate": "2026-03-02T11:00:00Z",
			"allDay": false,
			"status": "confirmed",
			"availability": "busy",
			"calendarId": "cal-1"
		}`))
		require.Error(t, err)

		var serr *Error
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Violations, 1)
		assert.Equal(t, "id", serr.Violations[0].Field)
		assert.Equal(t, "required", serr.Violations[0].Constraint)
	})

	t.Run("all constraint violations are collected", func(t *testing.T) {
		_, err := ParseCalendarEvent([]byte(`{
			"title": "x",
			"startDate": "2026-03-02T10:00:00Z",
			"endDate": "2026-03-02T11:00:00Z",
			"allDay": false,
			"status": "maybe",
			"availability": "busy",
			"calendarId": "cal-1",
			"attendees": [{"email": "not-an-email", "status": "accepted"}]
		}`))
		require.Error(t, err)

		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Contains(t, serr.Fields(), "id")
		assert.Contains(t, serr.Fields(), "status")
		assert.Contains(t, serr.Fields(), "attendees[0].email")
	})

	t.Run("enum violation names the constraint", func(t *testing.T) {
		_, err := ParseCalendarEvent([]byte(`{
			"id": "ev-1",
			"title": "x",
			"startDate": "2026-03-02T10:00:00Z",
			"endDate": "2026-03-02T11:00:00Z",
			"allDay": false,
			"status": "postponed",
			"availability": "busy",
			"calendarId": "cal-1"
		}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Violations, 1)
		assert.Equal(t, "status", serr.Violations[0].Field)
		assert.Equal(t, "enum", serr.Violations[0].Constraint)
	})

	t.Run("wrong JSON type is rejected", func(t *testing.T) {
		_, err := ParseCalendarEvent([]byte(`{"id": 42}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Violations, 1)
		assert.Equal(t, "id", serr.Violations[0].Field)
		assert.Equal(t, "type", serr.Violations[0].Constraint)
	})

	t.Run("date-like string is not coerced", func(t *testing.T) {
		_, err := ParseCalendarEvent([]byte(`{
			"id": "ev-1",
			"title": "x",
			"startDate": "02/03/2026 10:00",
			"endDate": "2026-03-02T11:00:00Z",
			"allDay": false,
			"status": "confirmed",
			"availability": "busy",
			"calendarId": "cal-1"
		}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Violations, 1)
		assert.Equal(t, "type", serr.Violations[0].Constraint)
	})
}

func TestParseCalendarEvents(t *testing.T) {
	t.Run("element-wise violations carry indexed paths", func(t *testing.T) {
		data := fmt.Sprintf(`[%s, {"title": "no id"}]`, validEventJSON())
		_, err := ParseCalendarEvents([]byte(data))
		require.Error(t, err)

		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Contains(t, serr.Fields(), "events[1].id")
		assert.NotContains(t, serr.Fields(), "events[0].id")
	})

	t.Run("all valid elements parse", func(t *testing.T) {
		data := fmt.Sprintf(`[%s, %s]`, validEventJSON(), validEventJSON())
		events, err := ParseCalendarEvents([]byte(data))
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}

func TestParseCalendar(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		cal, err := ParseCalendar([]byte(`{"id": "cal-1", "name": "Work", "color": "#ff0000", "visible": true}`))
		require.NoError(t, err)
		assert.Equal(t, "cal-1", cal.ID)
		assert.Equal(t, "Work", cal.Name)
		require.NotNil(t, cal.Color)
		assert.Equal(t, "#ff0000", *cal.Color)
		assert.Nil(t, cal.Account)
		assert.True(t, cal.Visible)
	})

	t.Run("visible false is a genuine value, not absence", func(t *testing.T) {
		cal, err := ParseCalendar([]byte(`{"id": "cal-1", "name": "Work", "visible": false}`))
		require.NoError(t, err)
		assert.False(t, cal.Visible)
	})

	t.Run("missing visible flag fails", func(t *testing.T) {
		_, err := ParseCalendar([]byte(`{"id": "cal-1", "name": "Work"}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, []string{"visible"}, serr.Fields())
	})
}

func TestParseReminder(t *testing.T) {
	valid := `{
		"id": "rem-1",
		"title": "Buy milk",
		"completed": false,
		"priority": 5,
		"listId": "list-1",
		"dueDate": "2026-03-05T09:00:00Z"
	}`

	t.Run("valid payload round-trips", func(t *testing.T) {
		rem, err := ParseReminder([]byte(valid))
		require.NoError(t, err)
		assert.Equal(t, "rem-1", rem.ID)
		assert.Equal(t, "Buy milk", rem.Title)
		assert.False(t, rem.Completed)
		assert.Equal(t, 5, rem.Priority)
		assert.Equal(t, "list-1", rem.ListID)
		require.NotNil(t, rem.DueDate)
		assert.Nil(t, rem.CreatedAt)
		assert.Nil(t, rem.Notes)
	})

	t.Run("priority zero is valid", func(t *testing.T) {
		rem, err := ParseReminder([]byte(`{"id": "r", "title": "t", "completed": true, "priority": 0, "listId": "l"}`))
		require.NoError(t, err)
		assert.Equal(t, 0, rem.Priority)
	})

	t.Run("missing priority is identified", func(t *testing.T) {
		_, err := ParseReminder([]byte(`{"id": "r", "title": "t", "completed": true, "listId": "l"}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, []string{"priority"}, serr.Fields())
	})

	t.Run("priority out of range is identified", func(t *testing.T) {
		_, err := ParseReminder([]byte(`{"id": "r", "title": "t", "completed": true, "priority": 12, "listId": "l"}`))
		var serr *Error
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Violations, 1)
		assert.Equal(t, "priority", serr.Violations[0].Field)
		assert.Equal(t, "range", serr.Violations[0].Constraint)
	})
}

func TestParseReminderLists(t *testing.T) {
	lists, err := ParseReminderLists([]byte(`[{"id": "l1", "name": "Inbox", "count": 3}, {"id": "l2", "name": "Groceries"}]`))
	require.NoError(t, err)
	require.Len(t, lists, 2)
	require.NotNil(t, lists[0].Count)
	assert.Equal(t, 3, *lists[0].Count)
	assert.Nil(t, lists[1].Count)
	assert.Nil(t, lists[1].Color)
}

func TestErrorMessage(t *testing.T) {
	_, err := ParseReminder([]byte(`{"id": "r", "title": "t", "completed": true, "listId": "l"}`))
	require.Error(t, err)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Contains(t, serr.Error(), "priority")
}
