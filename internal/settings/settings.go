// Package settings holds the persisted tasksync configuration: one section
// per integration plus the user-configurable task status list. Sections are
// the unit of change notification — see Diff and Dispatcher.
package settings

import (
	"reflect"

	"tasksync/internal/models"
)

// Section names. Integration sections use the camelCase settings path form
// ("integrations.appleReminders"); note this is not the same string as the
// integration's registry key ("apple-reminders") — the registry maps between
// the two through its SettingsPath accessor.
const (
	SectionTaskStatuses   = "taskStatuses"
	SectionGitHub         = "integrations.github"
	SectionAppleReminders = "integrations.appleReminders"
	SectionAppleCalendar  = "integrations.appleCalendar"
	SectionGoogleCalendar = "integrations.googleCalendar"
)

// GitHubSettings configures the GitHub issues integration.
type GitHubSettings struct {
	Enabled       bool   `json:"enabled"`
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	TokenEnvVar   string `json:"tokenEnvVar"`
	IncludeClosed bool   `json:"includeClosed"`
}

// AppleCalendarSettings configures the Apple Calendar (iCloud CalDAV)
// integration.
type AppleCalendarSettings struct {
	Enabled       bool     `json:"enabled"`
	CalendarNames []string `json:"calendarNames"` // empty means all calendars
	WindowDays    int      `json:"windowDays"`
}

// AppleRemindersSettings configures the Apple Reminders (iCloud CalDAV
// VTODO) integration.
type AppleRemindersSettings struct {
	Enabled          bool     `json:"enabled"`
	ListNames        []string `json:"listNames"` // empty means all lists
	IncludeCompleted bool     `json:"includeCompleted"`
}

// GoogleCalendarSettings configures the Google Calendar integration.
type GoogleCalendarSettings struct {
	Enabled     bool     `json:"enabled"`
	Account     string   `json:"account"`
	CalendarIDs []string `json:"calendarIds"`
	WindowDays  int      `json:"windowDays"`
}

// IntegrationSettings groups the per-integration sections.
type IntegrationSettings struct {
	GitHub         GitHubSettings         `json:"github"`
	AppleReminders AppleRemindersSettings `json:"appleReminders"`
	AppleCalendar  AppleCalendarSettings  `json:"appleCalendar"`
	GoogleCalendar GoogleCalendarSettings `json:"googleCalendar"`
}

// Settings is the full persisted configuration.
type Settings struct {
	Integrations IntegrationSettings `json:"integrations"`
	TaskStatuses []models.TaskStatus `json:"taskStatuses"`
}

// Default returns the settings used before the user saves anything: all
// integrations disabled, built-in status set, seven-day sync windows.
func Default() Settings {
	return Settings{
		Integrations: IntegrationSettings{
			GitHub:         GitHubSettings{TokenEnvVar: "GITHUB_TOKEN"},
			AppleCalendar:  AppleCalendarSettings{WindowDays: 7},
			AppleReminders: AppleRemindersSettings{},
			GoogleCalendar: GoogleCalendarSettings{WindowDays: 7},
		},
		TaskStatuses: models.DefaultTaskStatuses(),
	}
}

// SectionNames lists every section in a stable order.
func SectionNames() []string {
	return []string{
		SectionTaskStatuses,
		SectionGitHub,
		SectionAppleReminders,
		SectionAppleCalendar,
		SectionGoogleCalendar,
	}
}

// Section returns the named sub-object of the settings, or nil for an
// unknown name.
func (s Settings) Section(name string) any {
	switch name {
	case SectionTaskStatuses:
		return s.TaskStatuses
	case SectionGitHub:
		return s.Integrations.GitHub
	case SectionAppleReminders:
		return s.Integrations.AppleReminders
	case SectionAppleCalendar:
		return s.Integrations.AppleCalendar
	case SectionGoogleCalendar:
		return s.Integrations.GoogleCalendar
	}
	return nil
}

// Diff compares two settings snapshots section by section and returns one
// ChangeEvent per section. Every section produces an event; HasChanges marks
// the ones whose value actually differs.
func Diff(old, updated Settings) []ChangeEvent {
	events := make([]ChangeEvent, 0, len(SectionNames()))
	for _, name := range SectionNames() {
		oldVal := old.Section(name)
		newVal := updated.Section(name)
		events = append(events, ChangeEvent{
			Section:    name,
			Old:        oldVal,
			New:        newVal,
			HasChanges: !reflect.DeepEqual(oldVal, newVal),
		})
	}
	return events
}
