package taskwarrior

import (
	"fmt"
	"strings"
	"time"
)

// Status is the Taskwarrior task status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusWaiting   Status = "waiting"
	StatusDeleted   Status = "deleted"
	StatusRecurring Status = "recurring"
)

// Timestamp is a Taskwarrior date, always UTC in the export format.
type Timestamp struct {
	time.Time
}

const timestampLayout = "20060102T150405Z"

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("invalid taskwarrior date %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.Format(timestampLayout) + `"`), nil
}

// Ptr returns a copy of the time, or nil when ts is absent or zero.
func (ts *Timestamp) Ptr() *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

// first returns the first present timestamp.
func first(ts ...*Timestamp) *time.Time {
	for _, t := range ts {
		if p := t.Ptr(); p != nil {
			return p
		}
	}
	return nil
}

type Annotation struct {
	Description string     `json:"description"`
	Entry       *Timestamp `json:"entry"`
}

// Task is one object of `task export`. Unknown attributes and UDAs other
// than est and act are ignored.
type Task struct {
	UUID        string       `json:"uuid"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Priority    string       `json:"priority,omitempty"`
	Project     string       `json:"project,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Entry       *Timestamp   `json:"entry,omitempty"`
	Modified    *Timestamp   `json:"modified,omitempty"`
	Due         *Timestamp   `json:"due,omitempty"`
	Scheduled   *Timestamp   `json:"scheduled,omitempty"`
	Start       *Timestamp   `json:"start,omitempty"`
	End         *Timestamp   `json:"end,omitempty"`
	// Est and Act are the estimate and actual UDAs, as durations.
	Est string `json:"est,omitempty"`
	Act string `json:"act,omitempty"`
}

// Started reports whether the task is currently being worked on.
func (t Task) Started() bool {
	return t.Start.Ptr() != nil && t.End.Ptr() == nil
}
