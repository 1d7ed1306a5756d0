package google

import (
	"context"
	"errors"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tomato/pkg/colors"
	"github.com/harrisonrobin/tomato/pkg/index"
	"github.com/harrisonrobin/tomato/pkg/logging"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/overdue"
	"github.com/harrisonrobin/tomato/pkg/util"
)

// Mirror pushes tasks to a calendar and keeps the local caches that make
// repeated pushes cheap.
type Mirror struct {
	cal    *CalendarClient
	colors *colors.ColorCache
	due    *overdue.Table
	index  *index.EventIndex
	log    *logging.Logger
	now    func() time.Time
}

// PushStats counts what one Push did.
type PushStats struct {
	Mirrored int `json:"mirrored"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func NewMirror(cal *CalendarClient, c *colors.ColorCache, due *overdue.Table, idx *index.EventIndex, log *logging.Logger) *Mirror {
	return &Mirror{cal: cal, colors: c, due: due, index: idx, log: log, now: time.Now}
}

// Push mirrors every task. Per-task failures are logged and counted; the
// returned error only reports caches that could not be saved.
func (m *Mirror) Push(ctx context.Context, tasks []model.Task, sessions []model.Session, settings model.Settings) (PushStats, error) {
	var stats PushStats
	now := m.now()

	byTask := make(map[string][]model.Session)
	for _, s := range sessions {
		if s.TaskID != "" {
			byTask[s.TaskID] = append(byTask[s.TaskID], s)
		}
	}

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := m.log.With("task_id", t.ID)

		if t.Status == model.StatusCancelled {
			m.due.Remove(t.ID)
			removed, err := m.cal.RemoveTask(ctx, t.ID)
			if err != nil {
				log.Warn("could not remove event", "error", err)
				stats.Failed++
				continue
			}
			if removed {
				stats.Removed++
			}
			continue
		}

		event, err := util.ConvertTaskToCalendarEvent(t, util.EventOptions{
			WorkMinutes: settings.WorkDurationMinutes,
			ColorID:     m.colors.ColorFor(t.Tags),
			Now:         now,
			Sessions:    byTask[t.ID],
		})
		if errors.Is(err, util.ErrNoDate) {
			m.due.Remove(t.ID)
			stats.Skipped++
			continue
		}
		if err != nil {
			log.Warn("could not convert task", "error", err)
			stats.Failed++
			continue
		}

		synced, err := m.cal.SyncEvent(ctx, t.ID, event)
		if err != nil {
			log.Warn("could not sync event", "error", err)
			stats.Failed++
			continue
		}
		stats.Mirrored++

		if t.Status == model.StatusPending {
			m.due.Track(t.ID, synced.Id, t.Title, t.DueDate, now)
		} else {
			m.due.Remove(t.ID)
		}
	}

	m.log.Info("calendar push finished",
		"mirrored", stats.Mirrored, "removed", stats.Removed,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, m.save()
}

// Sweep marks the events of tasks that became overdue since the last push.
func (m *Mirror) Sweep(ctx context.Context) (int, error) {
	entries := m.due.Sweep(m.now())
	marked := 0
	for _, e := range entries {
		patch := &calendar.Event{Summary: "! " + e.Summary}
		if _, err := m.cal.PatchEvent(ctx, e.EventID, patch); err != nil {
			m.log.Warn("sweep: could not patch event", "event_id", e.EventID, "error", err)
			continue
		}
		marked++
	}
	return marked, m.save()
}

// NextDue returns the tracked event that becomes overdue first.
func (m *Mirror) NextDue() (overdue.Entry, bool) {
	return m.due.Next()
}

// Prune deletes events starting after since whose task is not in tasks,
// such as tasks removed locally after they were mirrored. Events without a
// task id are left alone. Index entries of unknown tasks are dropped even
// when their event starts before since.
func (m *Mirror) Prune(ctx context.Context, tasks []model.Task, since time.Time) (int, error) {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	events, err := m.cal.ListEvents(ctx, since)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, ev := range events {
		taskID := eventTaskID(ev)
		if taskID == "" || known[taskID] {
			continue
		}
		if err := m.cal.DeleteEvent(ctx, ev.Id); err != nil {
			m.log.Warn("prune: could not delete event", "event_id", ev.Id, "task_id", taskID, "error", err)
			continue
		}
		m.index.Remove(taskID)
		m.due.Remove(taskID)
		pruned++
	}
	if n := m.index.Retain(func(id string) bool { return known[id] }); n > 0 {
		m.log.Debug("prune: dropped stale index entries", "count", n)
	}
	return pruned, m.save()
}

// eventTaskID reads the task id from the private property, falling back to
// the "ID:" line of the description.
func eventTaskID(ev *calendar.Event) string {
	if ev.ExtendedProperties != nil {
		if id := ev.ExtendedProperties.Private[util.TaskIDProperty]; id != "" {
			return id
		}
	}
	id, _ := util.GetTaskIDFromEventDescription(ev.Description)
	return id
}

func (m *Mirror) save() error {
	return errors.Join(m.index.Save(), m.colors.Save(), m.due.Save())
}
