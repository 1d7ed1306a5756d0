package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/store"
)

func TestRemoteOnlyEntitiesStayConvergedInSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "tomato.db"))
	require.NoError(t, err)
	defer st.Close()

	r := newFakeRemote()
	// Fields the store would default on a user-facing create.
	r.tasks = []model.Task{{
		ID: "T1", Title: "bare", Tags: []string{},
		CreatedAt: at(0), UpdatedAt: at(50),
	}}
	r.sessions = []model.Session{{
		ID: "S1", SessionType: model.SessionWork, State: model.StateReady,
		DurationMinutes: 25, RemainingSeconds: 0,
		CreatedAt: at(0), UpdatedAt: at(60),
	}}

	var logs bytes.Buffer
	e := New(st, r, WithClock(func() time.Time { return fakeNow }),
		WithLogger(logging.NewWithWriter(&logs, logging.LevelInfo)))

	first := e.Run(ctx)
	require.True(t, first.Success, first.Errors)
	assert.Equal(t, 1, first.SyncedTasks)
	assert.Equal(t, 1, first.SyncedSessions)
	assert.Zero(t, first.Conflicts)

	got, err := st.GetTask(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, got.Equal(r.tasks[0]), "local task %+v differs from remote", got)
	sess, err := st.GetSession(ctx, "S1")
	require.NoError(t, err)
	assert.Zero(t, sess.RemainingSeconds)
	assert.True(t, sess.Equal(r.sessions[0]))

	writes := r.writes
	logs.Reset()
	second := e.Run(ctx)
	require.True(t, second.Success, second.Errors)
	assert.Zero(t, second.SyncedTasks)
	assert.Zero(t, second.SyncedSessions)
	assert.Zero(t, second.Conflicts)
	assert.Equal(t, writes, r.writes, "second run must not write to the remote")
	assert.Equal(t, 2, strings.Count(logs.String(), "already converged"))
}
