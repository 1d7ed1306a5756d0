package engine

import (
	"context"
	"time"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

var fakeNow = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// failures maps a method name to the error it returns. A failure with a
// positive after value succeeds that many times first.
type failures map[string]*failure

type failure struct {
	after int
	err   error
}

func (f failures) check(method string) error {
	fl, ok := f[method]
	if !ok {
		return nil
	}
	if fl.after > 0 {
		fl.after--
		return nil
	}
	return fl.err
}

type fakeLocal struct {
	tasks    []model.Task
	sessions []model.Session
	settings model.Settings
	writes   int
	fail     failures
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{settings: model.DefaultSettings(), fail: failures{}}
}

func (l *fakeLocal) ListTasks(ctx context.Context) ([]model.Task, error) {
	if err := l.fail.check("ListTasks"); err != nil {
		return nil, err
	}
	return append([]model.Task(nil), l.tasks...), nil
}

func (l *fakeLocal) InsertTask(ctx context.Context, t model.Task) (model.Task, error) {
	if err := l.fail.check("InsertTask"); err != nil {
		return model.Task{}, err
	}
	l.writes++
	l.tasks = append(l.tasks, t.Canonical())
	return t, nil
}

func (l *fakeLocal) UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (model.Task, error) {
	if err := l.fail.check("UpdateTask"); err != nil {
		return model.Task{}, err
	}
	for i, t := range l.tasks {
		if t.ID == id {
			l.writes++
			l.tasks[i] = u.Apply(t, fakeNow)
			return l.tasks[i], nil
		}
	}
	return model.Task{}, errors.NewNotFoundError("task", id)
}

func (l *fakeLocal) task(id string) (model.Task, bool) {
	for _, t := range l.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (l *fakeLocal) ListSessions(ctx context.Context, f model.SessionFilter) ([]model.Session, error) {
	if err := l.fail.check("ListSessions"); err != nil {
		return nil, err
	}
	return append([]model.Session(nil), l.sessions...), nil
}

func (l *fakeLocal) InsertSession(ctx context.Context, s model.Session) (model.Session, error) {
	if err := l.fail.check("InsertSession"); err != nil {
		return model.Session{}, err
	}
	l.writes++
	l.sessions = append(l.sessions, s.Canonical())
	return s, nil
}

func (l *fakeLocal) UpdateSession(ctx context.Context, id string, u model.SessionUpdate) (model.Session, error) {
	if err := l.fail.check("UpdateSession"); err != nil {
		return model.Session{}, err
	}
	for i, s := range l.sessions {
		if s.ID == id {
			l.writes++
			l.sessions[i] = u.Apply(s, fakeNow)
			return l.sessions[i], nil
		}
	}
	return model.Session{}, errors.NewNotFoundError("session", id)
}

func (l *fakeLocal) GetSettings(ctx context.Context) (model.Settings, error) {
	if err := l.fail.check("GetSettings"); err != nil {
		return model.Settings{}, err
	}
	return l.settings, nil
}

func (l *fakeLocal) UpdateSettings(ctx context.Context, s model.Settings) error {
	if err := l.fail.check("UpdateSettings"); err != nil {
		return err
	}
	l.writes++
	l.settings = s
	return nil
}

type fakeRemote struct {
	tasks    []model.Task
	sessions []model.Session
	settings *model.Settings
	writes   int
	fail     failures
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{fail: failures{}}
}

func (r *fakeRemote) ListTasks(ctx context.Context) ([]model.Task, error) {
	if err := r.fail.check("ListTasks"); err != nil {
		return nil, err
	}
	return append([]model.Task(nil), r.tasks...), nil
}

func (r *fakeRemote) CreateTask(ctx context.Context, t model.Task) error {
	if err := r.fail.check("CreateTask"); err != nil {
		return err
	}
	r.writes++
	r.tasks = append(r.tasks, t)
	return nil
}

func (r *fakeRemote) UpdateTask(ctx context.Context, t model.Task) error {
	if err := r.fail.check("UpdateTask"); err != nil {
		return err
	}
	for i := range r.tasks {
		if r.tasks[i].ID == t.ID {
			r.writes++
			r.tasks[i] = t
			return nil
		}
	}
	return errors.NewStatusError("PUT", "/tasks/"+t.ID, 404, "")
}

func (r *fakeRemote) task(id string) (model.Task, bool) {
	for _, t := range r.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (r *fakeRemote) ListSessions(ctx context.Context) ([]model.Session, error) {
	if err := r.fail.check("ListSessions"); err != nil {
		return nil, err
	}
	return append([]model.Session(nil), r.sessions...), nil
}

func (r *fakeRemote) CreateSession(ctx context.Context, s model.Session) error {
	if err := r.fail.check("CreateSession"); err != nil {
		return err
	}
	r.writes++
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeRemote) UpdateSession(ctx context.Context, s model.Session) error {
	if err := r.fail.check("UpdateSession"); err != nil {
		return err
	}
	for i := range r.sessions {
		if r.sessions[i].ID == s.ID {
			r.writes++
			r.sessions[i] = s
			return nil
		}
	}
	return errors.NewStatusError("PUT", "/pomodoro/sessions/"+s.ID, 404, "")
}

func (r *fakeRemote) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := r.fail.check("GetSettings"); err != nil {
		return nil, err
	}
	if r.settings == nil {
		return nil, nil
	}
	s := *r.settings
	return &s, nil
}

func (r *fakeRemote) PutSettings(ctx context.Context, s model.Settings) error {
	if err := r.fail.check("PutSettings"); err != nil {
		return err
	}
	r.writes++
	r.settings = &s
	return nil
}
