package schema

import (
	"time"

	"tasksync/internal/models"
)

type reminderListPayload struct {
	ID    *string `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	Color *string `json:"color"`
	Count *int    `json:"count" validate:"omitempty,gte=0"`
}

// reminderPayload mirrors the reminder record shape. Creation, modification
// and due dates are optional because the source data provider may omit them.
type reminderPayload struct {
	ID             *string    `json:"id" validate:"required"`
	Title          *string    `json:"title" validate:"required"`
	Notes          *string    `json:"notes"`
	Completed      *bool      `json:"completed" validate:"required"`
	CompletionDate *time.Time `json:"completionDate"`
	CreatedAt      *time.Time `json:"createdAt"`
	ModifiedAt     *time.Time `json:"modifiedAt"`
	DueDate        *time.Time `json:"dueDate"`
	Priority       *int       `json:"priority" validate:"required,gte=0,lte=9"`
	ListID         *string    `json:"listId" validate:"required"`
	AllDay         *bool      `json:"allDay"`
	URL            *string    `json:"url" validate:"omitempty,url"`
}

// ParseReminderList validates a single reminder list payload.
func ParseReminderList(data []byte) (models.ReminderList, error) {
	var p reminderListPayload
	if err := decode(data, &p); err != nil {
		return models.ReminderList{}, err
	}
	return models.ReminderList{
		ID:    *p.ID,
		Name:  *p.Name,
		Color: p.Color,
		Count: p.Count,
	}, nil
}

// ParseReminderLists validates an array of reminder list payloads
// element-wise.
func ParseReminderLists(data []byte) ([]models.ReminderList, error) {
	return parseSlice(data, "lists", ParseReminderList)
}

// ParseReminder validates a single reminder payload.
func ParseReminder(data []byte) (models.Reminder, error) {
	var p reminderPayload
	if err := decode(data, &p); err != nil {
		return models.Reminder{}, err
	}
	return models.Reminder{
		ID:             *p.ID,
		Title:          *p.Title,
		Notes:          p.Notes,
		Completed:      *p.Completed,
		CompletionDate: p.CompletionDate,
		CreatedAt:      p.CreatedAt,
		ModifiedAt:     p.ModifiedAt,
		DueDate:        p.DueDate,
		Priority:       *p.Priority,
		ListID:         *p.ListID,
		AllDay:         p.AllDay,
		URL:            p.URL,
	}, nil
}

// ParseReminders validates an array of reminder payloads element-wise.
func ParseReminders(data []byte) ([]models.Reminder, error) {
	return parseSlice(data, "reminders", ParseReminder)
}
