package model

import (
	"fmt"
	"time"
)

// SessionType distinguishes focus periods from breaks.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

// ParseSessionType validates s.
func ParseSessionType(s string) (SessionType, error) {
	switch st := SessionType(s); st {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return st, nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// SessionState is the timer state of a Session.
type SessionState string

const (
	StateReady     SessionState = "ready"
	StateRunning   SessionState = "running"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
)

// Session is one timed focus or break period, optionally tied to a task.
type Session struct {
	ID               string       `json:"id" yaml:"id"`
	TaskID           string       `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	SessionType      SessionType  `json:"session_type" yaml:"session_type"`
	State            SessionState `json:"state" yaml:"state"`
	DurationMinutes  int          `json:"duration_minutes" yaml:"duration_minutes"`
	RemainingSeconds int          `json:"remaining_seconds" yaml:"remaining_seconds"`
	StartedAt        *time.Time   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	PausedAt         *time.Time   `json:"paused_at,omitempty" yaml:"paused_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Rating           *int         `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes            string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt        time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" yaml:"updated_at"`
}

func (s Session) SyncID() string { return s.ID }

func (s Session) LastModified() time.Time { return s.UpdatedAt }

// Canonical returns s with every timestamp in UTC.
func (s Session) Canonical() Session {
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	s.StartedAt = utcPtr(s.StartedAt)
	s.PausedAt = utcPtr(s.PausedAt)
	s.CompletedAt = utcPtr(s.CompletedAt)
	return s
}

// SessionUpdate is a partial update. Nil fields are left unchanged.
type SessionUpdate struct {
	TaskID           *string
	SessionType      *SessionType
	DurationMinutes  *int
	State            *SessionState
	RemainingSeconds *int
	StartedAt        *time.Time
	ClearStartedAt   bool
	PausedAt         *time.Time
	ClearPausedAt    bool
	CompletedAt      *time.Time
	ClearCompleted   bool
	Rating           *int
	ClearRating      bool
	Notes            *string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
}

// SessionUpdateFrom builds an update that makes a row equal to s, including
// its timestamps.
func SessionUpdateFrom(s Session) SessionUpdate {
	s = s.Canonical()
	return SessionUpdate{
		TaskID:           &s.TaskID,
		SessionType:      &s.SessionType,
		DurationMinutes:  &s.DurationMinutes,
		State:            &s.State,
		RemainingSeconds: &s.RemainingSeconds,
		StartedAt:        s.StartedAt,
		ClearStartedAt:   s.StartedAt == nil,
		PausedAt:         s.PausedAt,
		ClearPausedAt:    s.PausedAt == nil,
		CompletedAt:      s.CompletedAt,
		ClearCompleted:   s.CompletedAt == nil,
		Rating:           s.Rating,
		ClearRating:      s.Rating == nil,
		Notes:            &s.Notes,
		CreatedAt:        &s.CreatedAt,
		UpdatedAt:        &s.UpdatedAt,
	}
}

// Apply returns s with u applied. now is used when u carries no timestamp.
func (u SessionUpdate) Apply(s Session, now time.Time) Session {
	if u.TaskID != nil {
		s.TaskID = *u.TaskID
	}
	if u.SessionType != nil {
		s.SessionType = *u.SessionType
	}
	if u.DurationMinutes != nil {
		s.DurationMinutes = *u.DurationMinutes
	}
	if u.State != nil {
		s.State = *u.State
	}
	if u.RemainingSeconds != nil {
		s.RemainingSeconds = *u.RemainingSeconds
	}
	if u.ClearStartedAt {
		s.StartedAt = nil
	} else if u.StartedAt != nil {
		s.StartedAt = utcPtr(u.StartedAt)
	}
	if u.ClearPausedAt {
		s.PausedAt = nil
	} else if u.PausedAt != nil {
		s.PausedAt = utcPtr(u.PausedAt)
	}
	if u.ClearCompleted {
		s.CompletedAt = nil
	} else if u.CompletedAt != nil {
		s.CompletedAt = utcPtr(u.CompletedAt)
	}
	if u.ClearRating {
		s.Rating = nil
	} else if u.Rating != nil {
		r := *u.Rating
		s.Rating = &r
	}
	if u.Notes != nil {
		s.Notes = *u.Notes
	}
	if u.CreatedAt != nil {
		s.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil {
		s.UpdatedAt = *u.UpdatedAt
	} else {
		s.UpdatedAt = now
	}
	return s.Canonical()
}

// SessionFilter narrows ListSessions. Zero values match everything.
type SessionFilter struct {
	TaskID string
	Since  time.Time
	Until  time.Time
}
