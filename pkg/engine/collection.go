package engine

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/reconcile"
)

// collection binds one entity type to its local and remote accessors. It
// implements reconcile.Applier.
type collection[T reconcile.Entity] struct {
	listLocal    func(ctx context.Context) ([]T, error)
	listRemote   func(ctx context.Context) ([]T, error)
	createLocal  func(ctx context.Context, e T) error
	updateLocal  func(ctx context.Context, e T) error
	createRemote func(ctx context.Context, e T) error
	updateRemote func(ctx context.Context, e T) error
	equal        reconcile.EqualFunc[T]
}

func (c collection[T]) CreateLocal(ctx context.Context, e T) error  { return c.createLocal(ctx, e) }
func (c collection[T]) UpdateLocal(ctx context.Context, e T) error  { return c.updateLocal(ctx, e) }
func (c collection[T]) CreateRemote(ctx context.Context, e T) error { return c.createRemote(ctx, e) }
func (c collection[T]) UpdateRemote(ctx context.Context, e T) error { return c.updateRemote(ctx, e) }

func syncCollection[T reconcile.Entity](ctx context.Context, c collection[T], log *logging.Logger) (reconcile.Counts, error) {
	local, err := c.listLocal(ctx)
	if err != nil {
		log.Error("read local snapshot", "error", err)
		return reconcile.Counts{}, fmt.Errorf("read local: %w", err)
	}
	remote, err := c.listRemote(ctx)
	if err != nil {
		log.Error("fetch remote snapshot", "error", err)
		return reconcile.Counts{}, fmt.Errorf("fetch remote: %w", err)
	}

	plan := reconcile.Compute(local, remote, c.equal)
	log.Debug("plan computed",
		"local", len(local), "remote", len(remote),
		"ops", len(plan.Ops), "conflicts", plan.Conflicts)
	if plan.Empty() {
		log.Info("already converged")
		return reconcile.Counts{}, nil
	}

	counts, err := reconcile.Apply(ctx, plan, c)
	if err != nil {
		log.Error("apply plan", "error", err, "synced", counts.Synced, "conflicts", counts.Conflicts)
		return counts, err
	}
	log.Info("phase done", "synced", counts.Synced, "conflicts", counts.Conflicts)
	return counts, nil
}

// Local writes carry the winning copy's fields, updated_at included, so a
// second run sees both sides equal.

func (e *Engine) taskCollection() collection[model.Task] {
	return collection[model.Task]{
		listLocal:  e.local.ListTasks,
		listRemote: e.remote.ListTasks,
		createLocal: func(ctx context.Context, t model.Task) error {
			_, err := e.local.InsertTask(ctx, t)
			return err
		},
		updateLocal: func(ctx context.Context, t model.Task) error {
			_, err := e.local.UpdateTask(ctx, t.ID, model.TaskUpdateFrom(t))
			return err
		},
		createRemote: e.remote.CreateTask,
		updateRemote: e.remote.UpdateTask,
		equal:        model.Task.Equal,
	}
}

func (e *Engine) sessionCollection() collection[model.Session] {
	return collection[model.Session]{
		listLocal: func(ctx context.Context) ([]model.Session, error) {
			return e.local.ListSessions(ctx, model.SessionFilter{})
		},
		listRemote: e.remote.ListSessions,
		createLocal: func(ctx context.Context, s model.Session) error {
			_, err := e.local.InsertSession(ctx, s)
			return err
		},
		updateLocal: func(ctx context.Context, s model.Session) error {
			_, err := e.local.UpdateSession(ctx, s.ID, model.SessionUpdateFrom(s))
			return err
		},
		createRemote: e.remote.CreateSession,
		updateRemote: e.remote.UpdateSession,
		equal:        model.Session.Equal,
	}
}
