package schema

import (
	"time"

	"tasksync/internal/models"
)

// calendarPayload mirrors the calendar record shape delivered by calendar
// integrations. Pointer fields distinguish genuine absence from zero values.
type calendarPayload struct {
	ID          *string `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Account     *string `json:"account"`
	Type        *string `json:"type"`
	Visible     *bool   `json:"visible" validate:"required"`
}

type attendeePayload struct {
	Name      *string `json:"name"`
	Email     *string `json:"email" validate:"required,email"`
	Status    *string `json:"status" validate:"required,oneof=accepted declined tentative needs-action"`
	Organizer *bool   `json:"organizer"`
}

type calendarEventPayload struct {
	ID             *string           `json:"id" validate:"required"`
	Title          *string           `json:"title" validate:"required"`
	StartDate      *time.Time        `json:"startDate" validate:"required"`
	EndDate        *time.Time        `json:"endDate" validate:"required"`
	AllDay         *bool             `json:"allDay" validate:"required"`
	Status         *string           `json:"status" validate:"required,oneof=confirmed tentative cancelled"`
	Availability   *string           `json:"availability" validate:"required,oneof=busy free"`
	CalendarID     *string           `json:"calendarId" validate:"required"`
	Location       *string           `json:"location"`
	URL            *string           `json:"url" validate:"omitempty,url"`
	Attendees      []attendeePayload `json:"attendees" validate:"omitempty,dive"`
	Organizer      *attendeePayload  `json:"organizer"`
	RecurrenceRule *string           `json:"recurrenceRule"`
	CreatedAt      *time.Time        `json:"createdAt"`
	ModifiedAt     *time.Time        `json:"modifiedAt"`
}

// ParseCalendar validates a single calendar payload.
func ParseCalendar(data []byte) (models.Calendar, error) {
	var p calendarPayload
	if err := decode(data, &p); err != nil {
		return models.Calendar{}, err
	}
	return models.Calendar{
		ID:          *p.ID,
		Name:        *p.Name,
		Description: p.Description,
		Color:       p.Color,
		Account:     p.Account,
		Type:        p.Type,
		Visible:     *p.Visible,
	}, nil
}

// ParseCalendars validates an array of calendar payloads element-wise,
// collecting violations across all elements.
func ParseCalendars(data []byte) ([]models.Calendar, error) {
	return parseSlice(data, "calendars", ParseCalendar)
}

// ParseCalendarEvent validates a single calendar event payload.
func ParseCalendarEvent(data []byte) (models.CalendarEvent, error) {
	var p calendarEventPayload
	if err := decode(data, &p); err != nil {
		return models.CalendarEvent{}, err
	}
	ev := models.CalendarEvent{
		ID:             *p.ID,
		Title:          *p.Title,
		StartDate:      *p.StartDate,
		EndDate:        *p.EndDate,
		AllDay:         *p.AllDay,
		Status:         models.EventStatus(*p.Status),
		Availability:   models.Availability(*p.Availability),
		CalendarID:     *p.CalendarID,
		Location:       p.Location,
		URL:            p.URL,
		RecurrenceRule: p.RecurrenceRule,
		CreatedAt:      p.CreatedAt,
		ModifiedAt:     p.ModifiedAt,
	}
	for _, a := range p.Attendees {
		ev.Attendees = append(ev.Attendees, toAttendee(a))
	}
	if p.Organizer != nil {
		org := toAttendee(*p.Organizer)
		ev.Organizer = &org
	}
	return ev, nil
}

// ParseCalendarEvents validates an array of event payloads element-wise.
func ParseCalendarEvents(data []byte) ([]models.CalendarEvent, error) {
	return parseSlice(data, "events", ParseCalendarEvent)
}

func toAttendee(p attendeePayload) models.Attendee {
	a := models.Attendee{
		Name:   p.Name,
		Email:  *p.Email,
		Status: models.RSVPStatus(*p.Status),
	}
	if p.Organizer != nil {
		a.Organizer = *p.Organizer
	}
	return a
}
