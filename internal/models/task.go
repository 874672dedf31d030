package models

import "time"

// StatusType classifies a task status symbol into one of the broad
// categories the status evaluator understands.
type StatusType string

const (
	StatusTypeTodo       StatusType = "todo"
	StatusTypeInProgress StatusType = "in-progress"
	StatusTypeDone       StatusType = "done"
	StatusTypeCancelled  StatusType = "cancelled"
)

// TaskStatus maps a single-character status symbol to its meaning. The
// status list is user-configurable and lives in the taskStatuses settings
// section.
type TaskStatus struct {
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	NextSymbol string     `json:"nextStatusSymbol"`
	Type       StatusType `json:"type"`
}

// DefaultTaskStatuses is the built-in status set used until the user
// customizes the taskStatuses section.
func DefaultTaskStatuses() []TaskStatus {
	return []TaskStatus{
		{Name: "Todo", Symbol: " ", NextSymbol: "x", Type: StatusTypeTodo},
		{Name: "In Progress", Symbol: "/", NextSymbol: "x", Type: StatusTypeInProgress},
		{Name: "Done", Symbol: "x", NextSymbol: " ", Type: StatusTypeDone},
		{Name: "Cancelled", Symbol: "-", NextSymbol: " ", Type: StatusTypeCancelled},
	}
}

// Task is the local representation every integration record is merged into.
type Task struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`     // integration key that produced the task
	ExternalID   string     `json:"externalId"` // id within the source collection
	Title        string     `json:"title"`
	Notes        string     `json:"notes,omitempty"`
	StatusSymbol string     `json:"statusSymbol"`
	Due          *time.Time `json:"due,omitempty"`
	Priority     int        `json:"priority"`
	URL          string     `json:"url,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	ModifiedAt   *time.Time `json:"modifiedAt,omitempty"`
}
