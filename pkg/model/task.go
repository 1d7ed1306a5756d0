package model

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// ParseTaskStatus validates s. Unknown values are an error.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// TaskPriority orders tasks for display.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskPriority validates s. Unknown values are an error.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

// Task is a unit of work that focus sessions can be attached to.
// ID is assigned once and UpdatedAt moves forward on every mutation.
type Task struct {
	ID                 string       `json:"id" yaml:"id"`
	Title              string       `json:"title" yaml:"title"`
	Description        string       `json:"description,omitempty" yaml:"description,omitempty"`
	Status             TaskStatus   `json:"status" yaml:"status"`
	Priority           TaskPriority `json:"priority" yaml:"priority"`
	DueDate            *time.Time   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags               []string     `json:"tags" yaml:"tags"`
	EstimatedPomodoros int          `json:"estimated_pomodoros" yaml:"estimated_pomodoros"`
	CompletedPomodoros int          `json:"completed_pomodoros" yaml:"completed_pomodoros"`
	CreatedAt          time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" yaml:"updated_at"`
}

func (t Task) SyncID() string { return t.ID }

func (t Task) LastModified() time.Time { return t.UpdatedAt }

// Canonical returns t with times in UTC and a non-nil tag list, the form
// used for structural comparison.
func (t Task) Canonical() Task {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.DueDate = utcPtr(t.DueDate)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

// IsActive reports whether the task still needs work.
func (t Task) IsActive() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
// A nil UpdatedAt means "stamp with the current time".
type TaskUpdate struct {
	Title              *string
	Description        *string
	Status             *TaskStatus
	Priority           *TaskPriority
	DueDate            *time.Time
	ClearDueDate       bool
	Tags               []string
	EstimatedPomodoros *int
	CompletedPomodoros *int
	CreatedAt          *time.Time
	UpdatedAt          *time.Time
}

// TaskUpdateFrom builds an update that makes a row equal to t, including
// its timestamps.
func TaskUpdateFrom(t Task) TaskUpdate {
	t = t.Canonical()
	u := TaskUpdate{
		Title:              &t.Title,
		Description:        &t.Description,
		Status:             &t.Status,
		Priority:           &t.Priority,
		DueDate:            t.DueDate,
		ClearDueDate:       t.DueDate == nil,
		Tags:               t.Tags,
		EstimatedPomodoros: &t.EstimatedPomodoros,
		CompletedPomodoros: &t.CompletedPomodoros,
		CreatedAt:          &t.CreatedAt,
		UpdatedAt:          &t.UpdatedAt,
	}
	return u
}

// Apply returns t with u applied. now is used when u carries no timestamp.
func (u TaskUpdate) Apply(t Task, now time.Time) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.ClearDueDate {
		t.DueDate = nil
	} else if u.DueDate != nil {
		d := *u.DueDate
		t.DueDate = &d
	}
	if u.Tags != nil {
		t.Tags = append([]string{}, u.Tags...)
	}
	if u.EstimatedPomodoros != nil {
		t.EstimatedPomodoros = *u.EstimatedPomodoros
	}
	if u.CompletedPomodoros != nil {
		t.CompletedPomodoros = *u.CompletedPomodoros
	}
	if u.CreatedAt != nil {
		t.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil {
		t.UpdatedAt = *u.UpdatedAt
	} else {
		t.UpdatedAt = now
	}
	return t.Canonical()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
