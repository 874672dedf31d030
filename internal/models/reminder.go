package models

import "time"

// ReminderList is a named collection of reminders.
type ReminderList struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
	Count *int    `json:"count,omitempty"`
}

// Reminder is a single to-do item from a reminders integration.
// Creation and modification dates are pointers because the source data
// provider may omit them entirely.
type Reminder struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Notes          *string    `json:"notes,omitempty"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	ModifiedAt     *time.Time `json:"modifiedAt,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Priority       int        `json:"priority"` // 0=none, 1=high, 5=medium, 9=low
	ListID         string     `json:"listId"`
	AllDay         *bool      `json:"allDay,omitempty"`
	URL            *string    `json:"url,omitempty"`
}

// PriorityLabel returns a human-readable priority string.
func (r *Reminder) PriorityLabel() string {
	switch {
	case r.Priority == 0:
		return "none"
	case r.Priority <= 4:
		return "high"
	case r.Priority == 5:
		return "medium"
	default:
		return "low"
	}
}

// IsOverdue reports whether the reminder has a due date in the past and is
// not completed.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return !r.Completed && r.DueDate != nil && r.DueDate.Before(now)
}
