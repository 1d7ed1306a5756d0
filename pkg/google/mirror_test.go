package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/tomato/pkg/colors"
	"github.com/harrisonrobin/tomato/pkg/index"
	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/overdue"
	"github.com/harrisonrobin/tomato/pkg/util"
)

// fakeCalendar serves the handful of Calendar API calls the mirror makes.
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]*calendar.Event
	nextID  int
	patches int
	deletes int
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/users/me/calendarList" {
		writeJSON(w, &calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			{Id: "other", Summary: "Personal"},
			{Id: "cal1", Summary: "Tasks"},
		}})
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/calendars/cal1/events")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(rest, "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		var items []*calendar.Event
		want := r.URL.Query().Get("privateExtendedProperty")
		for _, ev := range f.events {
			if want == "" || want == util.TaskIDProperty+"="+ev.ExtendedProperties.Private[util.TaskIDProperty] {
				items = append(items, ev)
			}
		}
		writeJSON(w, &calendar.Events{Items: items})
	case r.Method == http.MethodPost:
		var ev calendar.Event
		json.NewDecoder(r.Body).Decode(&ev)
		f.nextID++
		ev.Id = fmt.Sprintf("evt%d", f.nextID)
		f.events[ev.Id] = &ev
		writeJSON(w, &ev)
	case r.Method == http.MethodGet:
		ev, ok := f.events[id]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, ev)
	case r.Method == http.MethodPatch:
		ev, ok := f.events[id]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		var patch calendar.Event
		json.NewDecoder(r.Body).Decode(&patch)
		if patch.Summary != "" {
			ev.Summary = patch.Summary
		}
		if patch.Description != "" {
			ev.Description = patch.Description
		}
		if patch.Start != nil {
			ev.Start, ev.End = patch.Start, patch.End
		}
		f.patches++
		writeJSON(w, ev)
	case r.Method == http.MethodDelete:
		delete(f.events, id)
		f.deletes++
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type mirrorFixture struct {
	fake   *fakeCalendar
	mirror *Mirror
	clock  time.Time
}

func newMirrorFixture(t *testing.T) *mirrorFixture {
	t.Helper()
	ctx := context.Background()
	fake := &fakeCalendar{events: map[string]*calendar.Event{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	dir := t.TempDir()
	idx, err := index.Open(dir)
	require.NoError(t, err)
	cc, err := colors.NewColorCache(dir)
	require.NoError(t, err)
	due, err := overdue.Open(dir)
	require.NoError(t, err)

	cal, err := NewClient(ctx, svc, "Tasks", idx)
	require.NoError(t, err)

	f := &mirrorFixture{fake: fake, clock: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	f.mirror = NewMirror(cal, cc, due, idx, logging.NopLogger())
	f.mirror.now = func() time.Time { return f.clock }
	return f
}

func TestNewClientUnknownCalendar(t *testing.T) {
	srv := httptest.NewServer(&fakeCalendar{events: map[string]*calendar.Event{}})
	defer srv.Close()
	svc, err := calendar.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = NewClient(context.Background(), svc, "Nope", nil)
	assert.ErrorContains(t, err, "calendar 'Nope' not found")
	assert.ErrorContains(t, err, "Personal, Tasks")
}

func TestFindCalendarMatchesIDAndSummary(t *testing.T) {
	srv := httptest.NewServer(&fakeCalendar{events: map[string]*calendar.Event{}})
	defer srv.Close()
	svc, err := calendar.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	ctx := context.Background()

	for name, want := range map[string]string{
		"tasks":         "cal1",
		"other":         "other",
		PrimaryCalendar: PrimaryCalendar,
	} {
		id, err := FindCalendar(ctx, svc, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, id, name)
	}
}

func TestPushCreatesPatchesAndRemoves(t *testing.T) {
	f := newMirrorFixture(t)
	ctx := context.Background()
	settings := model.DefaultSettings()

	due := f.clock.Add(2 * time.Hour)
	dated := model.Task{ID: "T1", Title: "write report", Status: model.StatusPending, DueDate: &due, EstimatedPomodoros: 2}
	undated := model.Task{ID: "T2", Title: "someday", Status: model.StatusPending}

	stats, err := f.mirror.Push(ctx, []model.Task{dated, undated}, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, PushStats{Mirrored: 1, Skipped: 1}, stats)
	require.Len(t, f.fake.events, 1)
	assert.Equal(t, "evt1", f.mirror.index.Get("T1"))

	// unchanged task: no write
	stats, err = f.mirror.Push(ctx, []model.Task{dated}, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Mirrored)
	assert.Zero(t, f.fake.patches)

	dated.Status = model.StatusCompleted
	dated.UpdatedAt = f.clock
	_, err = f.mirror.Push(ctx, []model.Task{dated}, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fake.patches)
	assert.Equal(t, "✓ write report", f.fake.events["evt1"].Summary)

	dated.Status = model.StatusCancelled
	stats, err = f.mirror.Push(ctx, []model.Task{dated}, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.Empty(t, f.fake.events)
	assert.Empty(t, f.mirror.index.Get("T1"))
}

func TestSweepMarksOverdueEvents(t *testing.T) {
	f := newMirrorFixture(t)
	ctx := context.Background()

	due := f.clock.Add(time.Hour)
	task := model.Task{ID: "T1", Title: "call bank", Status: model.StatusPending, DueDate: &due}
	_, err := f.mirror.Push(ctx, []model.Task{task}, nil, model.DefaultSettings())
	require.NoError(t, err)

	marked, err := f.mirror.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, marked, "not due yet")
	next, ok := f.mirror.NextDue()
	require.True(t, ok)
	assert.Equal(t, "T1", next.TaskID)

	f.clock = f.clock.Add(2 * time.Hour)
	marked, err = f.mirror.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Equal(t, "! call bank", f.fake.events["evt1"].Summary)
	_, ok = f.mirror.NextDue()
	assert.False(t, ok)

	marked, err = f.mirror.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, marked, "an entry is swept once")
}

func TestPruneDeletesEventsOfUnknownTasks(t *testing.T) {
	f := newMirrorFixture(t)
	ctx := context.Background()

	due := f.clock.Add(time.Hour)
	keep := model.Task{ID: "T1", Title: "keep", Status: model.StatusPending, DueDate: &due}
	gone := model.Task{ID: "T2", Title: "gone", Status: model.StatusPending, DueDate: &due}
	_, err := f.mirror.Push(ctx, []model.Task{keep, gone}, nil, model.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, f.fake.events, 2)

	f.fake.events["manual"] = &calendar.Event{Id: "manual", Summary: "dentist"}
	f.fake.events["legacy"] = &calendar.Event{Id: "legacy", Summary: "old", Description: "Status: pending\nID: T9"}
	f.mirror.index.Set("T8", "long-gone")

	pruned, err := f.mirror.Prune(ctx, []model.Task{keep}, f.clock.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)
	assert.Contains(t, f.fake.events, "manual")
	assert.Contains(t, f.fake.events, f.mirror.index.Get("T1"))
	assert.Empty(t, f.mirror.index.Get("T2"))
	assert.Empty(t, f.mirror.index.Get("T8"))
	assert.Equal(t, 1, f.mirror.index.Len())
	assert.Len(t, f.fake.events, 2)
}
