package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

const sessionColumns = `id, task_id, session_type, state, duration_minutes, remaining_seconds,
	started_at, paused_at, completed_at, rating, notes, created_at, updated_at`

// ListSessions returns sessions matching f, newest first.
func (s *Store) ListSessions(ctx context.Context, f model.SessionFilter) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		where []string
		args  []any
	)
	if f.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, formatTime(f.Until))
	}
	query := `SELECT ` + sessionColumns + ` FROM pomodoro_sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("list sessions", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, errors.NewStorageError("list sessions", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list sessions", err)
	}
	return sessions, nil
}

// GetSession returns the session with id, or a NotFoundError.
func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSession(ctx, id)
}

func (s *Store) getSession(ctx context.Context, id string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM pomodoro_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, errors.NewNotFoundError("session", id)
	}
	if err != nil {
		return model.Session{}, errors.NewStorageError("get session", err)
	}
	return sess, nil
}

// CreateSession inserts a new session, filling in id, timestamps, type,
// state and the remaining time when they are missing.
func (s *Store) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.State == "" {
		sess.State = model.StateReady
	}
	if sess.SessionType == "" {
		sess.SessionType = model.SessionWork
	}
	if sess.RemainingSeconds == 0 && sess.State == model.StateReady {
		sess.RemainingSeconds = sess.DurationMinutes * 60
	}
	return s.InsertSession(ctx, sess)
}

// InsertSession stores sess as given. Only a missing id and missing
// timestamps are filled in.
func (s *Store) InsertSession(ctx context.Context, sess model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = s.ids()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	sess = sess.Canonical()

	if err := s.upsertSession(ctx, "INSERT INTO", sess); err != nil {
		return model.Session{}, errors.NewStorageError("create session", err)
	}
	return sess, nil
}

// UpdateSession applies u to the session with id.
func (s *Store) UpdateSession(ctx context.Context, id string, u model.SessionUpdate) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getSession(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	next := u.Apply(cur, s.now())
	if err := s.upsertSession(ctx, "REPLACE INTO", next); err != nil {
		return model.Session{}, errors.NewStorageError("update session", err)
	}
	return next, nil
}

func (s *Store) upsertSession(ctx context.Context, verb string, sess model.Session) error {
	var taskID, rating any
	if sess.TaskID != "" {
		taskID = sess.TaskID
	}
	if sess.Rating != nil {
		rating = *sess.Rating
	}
	_, err := s.db.ExecContext(ctx, verb+` pomodoro_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, taskID, string(sess.SessionType), string(sess.State),
		sess.DurationMinutes, sess.RemainingSeconds,
		formatTimePtr(sess.StartedAt), formatTimePtr(sess.PausedAt), formatTimePtr(sess.CompletedAt),
		rating, sess.Notes, formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	return err
}

func scanSession(sc scanner) (model.Session, error) {
	var (
		sess                          model.Session
		taskID                        sql.NullString
		sessionType, state            string
		startedAt, pausedAt, complete sql.NullString
		rating                        sql.NullInt64
		createdAt, updatedAt          string
	)
	err := sc.Scan(&sess.ID, &taskID, &sessionType, &state, &sess.DurationMinutes, &sess.RemainingSeconds,
		&startedAt, &pausedAt, &complete, &rating, &sess.Notes, &createdAt, &updatedAt)
	if err != nil {
		return model.Session{}, err
	}
	sess.TaskID = taskID.String
	sess.SessionType = model.SessionType(sessionType)
	sess.State = model.SessionState(state)
	if rating.Valid {
		r := int(rating.Int64)
		sess.Rating = &r
	}
	if sess.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return model.Session{}, err
	}
	if sess.PausedAt, err = parseTimePtr(pausedAt); err != nil {
		return model.Session{}, err
	}
	if sess.CompletedAt, err = parseTimePtr(complete); err != nil {
		return model.Session{}, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Session{}, err
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Session{}, err
	}
	return sess.Canonical(), nil
}
