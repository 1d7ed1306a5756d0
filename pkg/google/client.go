package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tomato/pkg/index"
)

// PrimaryCalendar names the account's default calendar without a lookup.
const PrimaryCalendar = "primary"

// FindCalendar resolves name to a calendar id. The name matches a calendar
// id exactly or a summary case-insensitively; "primary" is passed through.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	if name == PrimaryCalendar {
		return name, nil
	}

	var entries []*calendar.CalendarListEntry
	err := srv.CalendarList.List().MinAccessRole("writer").Pages(ctx, func(page *calendar.CalendarList) error {
		entries = append(entries, page.Items...)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	for _, e := range entries {
		if e.Id == name {
			return e.Id, nil
		}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.Summary, name) {
			return e.Id, nil
		}
		names = append(names, e.Summary)
	}
	return "", fmt.Errorf("calendar '%s' not found (writable calendars: %s)", name, strings.Join(names, ", "))
}

// NewClient resolves the configured calendar and returns a client for it.
func NewClient(ctx context.Context, srv *calendar.Service, calendarName string, idx *index.EventIndex) (*CalendarClient, error) {
	id, err := FindCalendar(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, id, idx), nil
}
