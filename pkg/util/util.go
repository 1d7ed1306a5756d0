// Package util converts tasks into Google Calendar events and persists the
// small JSON state files kept next to the database.
package util

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tomato/pkg/model"
)

// TaskIDProperty is the private extended property holding the task id on a
// mirrored event.
const TaskIDProperty = "tomato_task_id"

const defaultDuration = 30 * time.Minute

// ErrNoDate is returned for tasks that have nothing to place on a calendar.
var ErrNoDate = errors.New("task has no due date and is not in progress or completed")

// EventOptions carries what a conversion needs besides the task.
type EventOptions struct {
	// WorkMinutes is the length of one pomodoro.
	WorkMinutes int
	ColorID     string
	Now         time.Time
	// Sessions are the task's sessions, used for timing and accounting.
	Sessions []model.Session
}

// ParseDuration parses an ISO 8601 time duration (PT1H30M).
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}
	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, m := range durationPart.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}
	return total, nil
}

var (
	durationPart = regexp.MustCompile(`(\d+)([HMS])`)
	idLine       = regexp.MustCompile(`ID: ([a-zA-Z0-9\-]+)`)
)

// Summary returns the event title for t: the task title with a status
// prefix (✓ completed, ‣ in progress, ! overdue).
func Summary(t model.Task, now time.Time) string {
	prefix := ""
	switch {
	case t.Status == model.StatusCompleted:
		prefix = "✓"
	case t.Status == model.StatusInProgress:
		prefix = "‣"
	case t.DueDate != nil && t.DueDate.Before(now):
		prefix = "!"
	}
	if prefix == "" {
		return t.Title
	}
	return prefix + " " + t.Title
}

// focusTime sums the work actually done in completed work sessions.
func focusTime(sessions []model.Session) time.Duration {
	var total time.Duration
	for _, s := range sessions {
		if s.SessionType == model.SessionWork && s.State == model.StateCompleted {
			total += time.Duration(s.DurationMinutes) * time.Minute
		}
	}
	return total
}

// lastStart returns the most recent start time among the sessions.
func lastStart(sessions []model.Session) *time.Time {
	var last *time.Time
	for _, s := range sessions {
		if s.StartedAt != nil && (last == nil || s.StartedAt.After(*last)) {
			last = s.StartedAt
		}
	}
	return last
}

// ConvertTaskToCalendarEvent builds the event that mirrors t.
//
// Placement: a completed task ends at its last update and spans the focus
// time spent (or the estimate); an in-progress task starts at its latest
// session start; anything else starts at its due date. Cancelled tasks and
// tasks with none of these dates return ErrNoDate.
func ConvertTaskToCalendarEvent(t model.Task, opts EventOptions) (*calendar.Event, error) {
	if t.Status == model.StatusCancelled {
		return nil, ErrNoDate
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	pomodoro := time.Duration(opts.WorkMinutes) * time.Minute
	est := time.Duration(t.EstimatedPomodoros) * pomodoro
	spent := focusTime(opts.Sessions)

	length := defaultDuration
	if est > 0 {
		length = est
	}

	var start, end time.Time
	switch {
	case t.Status == model.StatusCompleted:
		end = t.UpdatedAt
		if spent > 0 {
			start = end.Add(-spent)
		} else {
			start = end.Add(-length)
		}
	case t.Status == model.StatusInProgress:
		start = t.UpdatedAt
		if s := lastStart(opts.Sessions); s != nil {
			start = *s
		}
		end = start.Add(length)
	case t.DueDate != nil:
		start = *t.DueDate
		end = start.Add(length)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoDate, t.ID)
	}

	var desc strings.Builder
	if len(t.Tags) > 0 {
		for _, tag := range t.Tags {
			fmt.Fprintf(&desc, "#%s ", tag)
		}
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Status: %s\n", t.Status)
	fmt.Fprintf(&desc, "Priority: %s\n", t.Priority)
	fmt.Fprintf(&desc, "ID: %s\n", t.ID)

	desc.WriteString("\nAccounting:\n")
	fmt.Fprintf(&desc, "• pomodoros: %d/%d\n", t.CompletedPomodoros, t.EstimatedPomodoros)
	if est > 0 {
		fmt.Fprintf(&desc, "• estimated: %s\n", est)
	}
	if spent > 0 {
		fmt.Fprintf(&desc, "• spent: %s\n", spent)
		if est > 0 {
			switch diff := spent - est; {
			case diff > 0:
				fmt.Fprintf(&desc, "• over estimate by: %s\n", diff)
			case diff < 0:
				fmt.Fprintf(&desc, "• under estimate by: %s\n", -diff)
			}
		}
	}

	if t.Description != "" {
		desc.WriteString("\nNotes:\n")
		for _, line := range strings.Split(strings.TrimSpace(t.Description), "\n") {
			fmt.Fprintf(&desc, "‣ %s\n", line)
		}
	}

	return &calendar.Event{
		Summary:     Summary(t, opts.Now),
		ColorId:     opts.ColorID,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: t.ID},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil if the two already agree.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameTime(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameTime(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameTime(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	ta, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	tb, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return ta.Equal(tb), nil
}

// GetTaskIDFromEventDescription parses the task id from an event description.
func GetTaskIDFromEventDescription(description string) (string, bool) {
	m := idLine.FindStringSubmatch(description)
	if len(m) > 1 {
		return m[1], true
	}
	return "", false
}
