// Package icloud provides the shared CalDAV session used by the Apple
// Calendar and Apple Reminders integrations. Both talk to the same iCloud
// endpoint with the same app-specific-password authentication; only the
// component type they query differs (VEVENT vs VTODO).
package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// Endpoint is the iCloud CalDAV discovery endpoint.
const Endpoint = "https://caldav.icloud.com/"

// transport adds Basic Auth and a User-Agent to every request.
type transport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "tasksync/1.0")
	return t.base.RoundTrip(req)
}

// Session is an authenticated CalDAV session against iCloud.
type Session struct {
	client   *caldav.Client
	logger   *slog.Logger
	username string
	homeSet  string
}

// NewSession creates a session. Principal and calendar-home-set discovery
// happens lazily on first use.
func NewSession(username, password string, logger *slog.Logger) (*Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("iCloud credentials are not set (ICLOUD_USERNAME, ICLOUD_APP_SPECIFIC_PASSWORD)")
	}

	httpClient := &http.Client{Transport: &transport{
		username: username,
		password: password,
		base:     http.DefaultTransport,
	}}

	client, err := caldav.NewClient(httpClient, Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	return &Session{
		client:   client,
		logger:   logger,
		username: username,
	}, nil
}

// Username returns the account the session authenticates as.
func (s *Session) Username() string {
	return s.username
}

// ensureHomeSet discovers the calendar home set once per session.
func (s *Session) ensureHomeSet(ctx context.Context) error {
	if s.homeSet != "" {
		return nil
	}

	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return fmt.Errorf("failed to find calendar home set: %w", err)
	}

	s.homeSet = homeSet
	s.logger.Debug("Discovered calendar home set.", "homeSet", homeSet)
	return nil
}

// Calendars lists every collection in the account's calendar home set.
// iCloud exposes both event calendars and reminder lists here; callers
// filter by supported component set.
func (s *Session) Calendars(ctx context.Context) ([]caldav.Calendar, error) {
	if err := s.ensureHomeSet(ctx); err != nil {
		return nil, err
	}

	calendars, err := s.client.FindCalendars(ctx, s.homeSet)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendars: %w", err)
	}
	return calendars, nil
}

// SupportsComponent reports whether a collection stores the given iCal
// component type. An empty supported set means the server did not say,
// which iCloud only does for plain event calendars.
func SupportsComponent(cal caldav.Calendar, name string) bool {
	if len(cal.SupportedComponentSet) == 0 {
		return name == ical.CompEvent
	}
	for _, comp := range cal.SupportedComponentSet {
		if comp == name {
			return true
		}
	}
	return false
}

// QueryComponents fetches all components of the given type from one
// collection. Start and end bound the query by time range when non-zero;
// reminder queries pass zero times to fetch the whole collection.
func (s *Session) QueryComponents(ctx context.Context, calendarPath, compName string, start, end time.Time) ([]*ical.Component, error) {
	compFilter := caldav.CompFilter{Name: compName}
	if !start.IsZero() {
		compFilter.Start = start
		compFilter.End = end
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{
				{Name: compName, AllProps: true},
			},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{compFilter},
		},
	}

	objects, err := s.client.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s components: %w", compName, err)
	}

	var comps []*ical.Component
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, child := range obj.Data.Children {
			if child.Name == compName {
				comps = append(comps, child)
			}
		}
	}
	return comps, nil
}
