// Package engine runs one sync between the local store and the remote
// service.
//
// A run has three phases, always in the same order: tasks, sessions,
// settings. A failing phase is recorded in the result and the next phase
// still runs. Counts from a phase that failed halfway are kept.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/model"
)

// LocalStore is the subset of the local store a sync run reads and writes.
// InsertTask and InsertSession must store the entity as given, without
// filling in defaults, so a remote-only copy reads back unchanged.
type LocalStore interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	InsertTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (model.Task, error)

	ListSessions(ctx context.Context, f model.SessionFilter) ([]model.Session, error)
	InsertSession(ctx context.Context, s model.Session) (model.Session, error)
	UpdateSession(ctx context.Context, id string, u model.SessionUpdate) (model.Session, error)

	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, s model.Settings) error
}

// Remote is the subset of the sync service a run talks to.
type Remote interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) error
	UpdateTask(ctx context.Context, t model.Task) error

	ListSessions(ctx context.Context) ([]model.Session, error)
	CreateSession(ctx context.Context, s model.Session) error
	UpdateSession(ctx context.Context, s model.Session) error

	GetSettings(ctx context.Context) (*model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error
}

// Engine reconciles a LocalStore with a Remote.
type Engine struct {
	local  LocalStore
	remote Remote
	log    *logging.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source used for CompletedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine over local and remote.
func New(local LocalStore, remote Remote, opts ...Option) *Engine {
	e := &Engine{
		local:  local,
		remote: remote,
		log:    logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one full sync. It never returns an error: failures are
// reported per phase in SyncResult.Errors.
func (e *Engine) Run(ctx context.Context) model.SyncResult {
	log := e.log.WithRun(uuid.NewString())
	log.Info("sync started")

	res := model.SyncResult{Errors: []string{}}

	tasks, err := syncCollection(ctx, e.taskCollection(), log.WithPhase("tasks"))
	res.SyncedTasks = tasks.Synced
	res.Conflicts += tasks.Conflicts
	if err != nil {
		res.Errors = append(res.Errors, "task sync: "+err.Error())
	}

	sessions, err := syncCollection(ctx, e.sessionCollection(), log.WithPhase("sessions"))
	res.SyncedSessions = sessions.Synced
	res.Conflicts += sessions.Conflicts
	if err != nil {
		res.Errors = append(res.Errors, "session sync: "+err.Error())
	}

	if err := e.syncSettings(ctx, log.WithPhase("settings")); err != nil {
		res.Errors = append(res.Errors, "settings sync: "+err.Error())
	}

	res.Success = len(res.Errors) == 0
	res.CompletedAt = e.now().UTC()

	log.Info("sync finished",
		"success", res.Success,
		"synced_tasks", res.SyncedTasks,
		"synced_sessions", res.SyncedSessions,
		"conflicts", res.Conflicts,
		"errors", len(res.Errors))
	return res
}
