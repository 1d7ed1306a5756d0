package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a timer action does not apply to the
// session's current state.
var ErrInvalidTransition = errors.New("invalid session transition")

func transitionError(s Session, action string) error {
	return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, action, s.State)
}

// The running time of a session is measured from UpdatedAt: start and
// resume both stamp it, and nothing else touches a running session.

// Start moves a ready session to running.
func (s Session) Start(now time.Time) (SessionUpdate, error) {
	if s.State != StateReady {
		return SessionUpdate{}, transitionError(s, "start")
	}
	state := StateRunning
	return SessionUpdate{State: &state, StartedAt: &now, UpdatedAt: &now}, nil
}

// Pause stops the timer and banks the time left.
func (s Session) Pause(now time.Time) (SessionUpdate, error) {
	if s.State != StateRunning {
		return SessionUpdate{}, transitionError(s, "pause")
	}
	state := StatePaused
	remaining := s.remainingAt(now)
	return SessionUpdate{State: &state, PausedAt: &now, RemainingSeconds: &remaining, UpdatedAt: &now}, nil
}

// Resume restarts a paused timer.
func (s Session) Resume(now time.Time) (SessionUpdate, error) {
	if s.State != StatePaused {
		return SessionUpdate{}, transitionError(s, "resume")
	}
	state := StateRunning
	return SessionUpdate{State: &state, ClearPausedAt: true, UpdatedAt: &now}, nil
}

// Complete finishes the session. rating may be nil.
func (s Session) Complete(now time.Time, rating *int, notes string) (SessionUpdate, error) {
	if s.State == StateCompleted {
		return SessionUpdate{}, transitionError(s, "complete")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return SessionUpdate{}, fmt.Errorf("rating must be between 1 and 5, got %d", *rating)
	}
	state := StateCompleted
	zero := 0
	u := SessionUpdate{
		State:            &state,
		RemainingSeconds: &zero,
		CompletedAt:      &now,
		ClearPausedAt:    true,
		Rating:           rating,
		UpdatedAt:        &now,
	}
	if s.StartedAt == nil {
		u.StartedAt = &now
	}
	if notes != "" {
		u.Notes = &notes
	}
	return u, nil
}

func (s Session) remainingAt(now time.Time) int {
	elapsed := int(now.Sub(s.UpdatedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if left := s.RemainingSeconds - elapsed; left > 0 {
		return left
	}
	return 0
}
