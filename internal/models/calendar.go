package models

import "time"

// EventStatus is the scheduling status of a calendar event.
type EventStatus string

const (
	EventConfirmed EventStatus = "confirmed"
	EventTentative EventStatus = "tentative"
	EventCancelled EventStatus = "cancelled"
)

// Availability describes how an event blocks time on the calendar.
type Availability string

const (
	AvailabilityBusy Availability = "busy"
	AvailabilityFree Availability = "free"
)

// RSVPStatus is an attendee's response to an event invitation.
type RSVPStatus string

const (
	RSVPAccepted    RSVPStatus = "accepted"
	RSVPDeclined    RSVPStatus = "declined"
	RSVPTentative   RSVPStatus = "tentative"
	RSVPNeedsAction RSVPStatus = "needs-action"
)

// Calendar is a read-only snapshot of a calendar owned by an integration.
type Calendar struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Account     *string `json:"account,omitempty"`
	Type        *string `json:"type,omitempty"`
	Visible     bool    `json:"visible"`
}

// Attendee is a participant on a calendar event. Email is the identity;
// the display name is frequently absent in provider data.
type Attendee struct {
	Name      *string    `json:"name,omitempty"`
	Email     string     `json:"email"`
	Status    RSVPStatus `json:"status"`
	Organizer bool       `json:"organizer"`
}

// CalendarEvent is a single occurrence or recurring series on a calendar.
type CalendarEvent struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"`
	AllDay         bool         `json:"allDay"`
	Status         EventStatus  `json:"status"`
	Availability   Availability `json:"availability"`
	CalendarID     string       `json:"calendarId"`
	Location       *string      `json:"location,omitempty"`
	URL            *string      `json:"url,omitempty"`
	Attendees      []Attendee   `json:"attendees,omitempty"`
	Organizer      *Attendee    `json:"organizer,omitempty"`
	RecurrenceRule *string      `json:"recurrenceRule,omitempty"`
	CreatedAt      *time.Time   `json:"createdAt,omitempty"`
	ModifiedAt     *time.Time   `json:"modifiedAt,omitempty"`
}

// IsRecurring returns true if the event carries an RFC 5545 recurrence rule.
func (e *CalendarEvent) IsRecurring() bool {
	return e.RecurrenceRule != nil && *e.RecurrenceRule != ""
}

// Duration returns the length of the event.
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndDate.Sub(e.StartDate)
}
