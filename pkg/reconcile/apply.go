package reconcile

import (
	"context"
	"fmt"
)

// Applier writes entities of one collection to either side.
type Applier[T Entity] interface {
	CreateLocal(ctx context.Context, e T) error
	UpdateLocal(ctx context.Context, e T) error
	CreateRemote(ctx context.Context, e T) error
	UpdateRemote(ctx context.Context, e T) error
}

// Counts is what actually got written.
type Counts struct {
	Synced    int
	Conflicts int
}

// Apply executes plan in order. The first failing operation stops the run;
// the returned counts then cover only the operations that succeeded before
// it. Nothing already written is rolled back.
func Apply[T Entity](ctx context.Context, plan Plan[T], a Applier[T]) (Counts, error) {
	var c Counts
	for _, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		if err := applyOp(ctx, op, a); err != nil {
			return c, fmt.Errorf("%s %s: %w", op.Kind, op.Entity.SyncID(), err)
		}
		if op.Conflict {
			c.Conflicts++
		} else {
			c.Synced++
		}
	}
	return c, nil
}

func applyOp[T Entity](ctx context.Context, op Op[T], a Applier[T]) error {
	switch op.Kind {
	case LocalCreate:
		return a.CreateLocal(ctx, op.Entity)
	case LocalUpdate:
		return a.UpdateLocal(ctx, op.Entity)
	case RemoteCreate:
		return a.CreateRemote(ctx, op.Entity)
	case RemoteUpdate:
		return a.UpdateRemote(ctx, op.Entity)
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
}
