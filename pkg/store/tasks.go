package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

const taskColumns = `id, title, description, status, priority, due_date, tags,
	estimated_pomodoros, completed_pomodoros, created_at, updated_at`

// ListTasks returns every task, oldest first.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.NewStorageError("list tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.NewStorageError("list tasks", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list tasks", err)
	}
	return tasks, nil
}

// GetTask returns the task with id, or a NotFoundError.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTask(ctx, id)
}

func (s *Store) getTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, errors.NewNotFoundError("task", id)
	}
	if err != nil {
		return model.Task{}, errors.NewStorageError("get task", err)
	}
	return t, nil
}

// CreateTask inserts a new task. Missing id, timestamps, status and
// priority are filled in; values already present, including the id, are
// kept as given.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	return s.InsertTask(ctx, t)
}

// InsertTask stores t as given. Only a missing id and missing timestamps
// are filled in, so a copy fetched from the remote reads back unchanged.
func (s *Store) InsertTask(ctx context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.ids()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	t = t.Canonical()

	if err := s.upsertTask(ctx, "INSERT INTO", t); err != nil {
		return model.Task{}, errors.NewStorageError("create task", err)
	}
	return t, nil
}

// UpdateTask applies u to the task with id. The timestamp is u.UpdatedAt
// when set, otherwise the current time.
func (s *Store) UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	next := u.Apply(cur, s.now())
	if err := s.upsertTask(ctx, "REPLACE INTO", next); err != nil {
		return model.Task{}, errors.NewStorageError("update task", err)
	}
	return next, nil
}

// DeleteTask removes the task with id. Sessions pointing at it are detached.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return errors.NewStorageError("delete task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("task", id)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE pomodoro_sessions SET task_id = NULL WHERE task_id = ?`, id); err != nil {
		return errors.NewStorageError("delete task", err)
	}
	return nil
}

func (s *Store) upsertTask(ctx context.Context, verb string, t model.Task) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, verb+` tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		formatTimePtr(t.DueDate), string(tags), t.EstimatedPomodoros, t.CompletedPomodoros,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return err
}

func scanTask(sc scanner) (model.Task, error) {
	var (
		t                    model.Task
		status, priority     string
		due                  sql.NullString
		tags                 string
		createdAt, updatedAt string
	)
	err := sc.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due, &tags,
		&t.EstimatedPomodoros, &t.CompletedPomodoros, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.TaskStatus(status)
	t.Priority = model.TaskPriority(priority)
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return model.Task{}, fmt.Errorf("task %s: bad tags: %w", t.ID, err)
	}
	if t.DueDate, err = parseTimePtr(due); err != nil {
		return model.Task{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Task{}, err
	}
	return t.Canonical(), nil
}
