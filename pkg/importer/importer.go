// Package importer writes tasks read from other tools into the local store.
package importer

import (
	"context"

	"github.com/harrisonrobin/tomato/pkg/errors"
	"github.com/harrisonrobin/tomato/pkg/model"
)

// Store is what an import writes to.
type Store interface {
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (model.Task, error)
}

// Stats counts what an import did.
type Stats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// Merge writes tasks into store. Ids are taken from the source tool, so a
// task already present is replaced only when the incoming copy is newer.
// A zero CreatedAt keeps the stored one.
func Merge(ctx context.Context, store Store, tasks []model.Task) (Stats, error) {
	var stats Stats
	for _, t := range tasks {
		cur, err := store.GetTask(ctx, t.ID)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			if _, err := store.CreateTask(ctx, t); err != nil {
				return stats, err
			}
			stats.Created++
		case err != nil:
			return stats, err
		case !t.UpdatedAt.IsZero() && t.UpdatedAt.After(cur.UpdatedAt):
			u := model.TaskUpdateFrom(t)
			if t.CreatedAt.IsZero() {
				u.CreatedAt = nil
			}
			if _, err := store.UpdateTask(ctx, t.ID, u); err != nil {
				return stats, err
			}
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}
	return stats, nil
}
