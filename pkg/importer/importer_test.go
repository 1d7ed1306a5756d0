package importer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/store"
)

func TestMerge(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "tomato.db"))
	require.NoError(t, err)
	defer s.Close()

	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	a := model.Task{ID: "a", Title: "one", CreatedAt: t0, UpdatedAt: t0}
	b := model.Task{ID: "b", Title: "two", CreatedAt: t0, UpdatedAt: t0}

	stats, err := Merge(ctx, s, []model.Task{a, b})
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2}, stats)

	a.Title = "one, renamed"
	a.UpdatedAt = t0.Add(time.Hour)
	a.CreatedAt = time.Time{}
	stale := b
	stale.Title = "older"
	stale.UpdatedAt = t0.Add(-time.Hour)

	stats, err = Merge(ctx, s, []model.Task{a, stale})
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1, Unchanged: 1}, stats)

	got, err := s.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "one, renamed", got.Title)
	assert.True(t, got.CreatedAt.Equal(t0), "zero created_at keeps the stored one")

	got, err = s.GetTask(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Title)
}
