package taskwarrior

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harrisonrobin/tomato/pkg/importer"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/util"
)

// ToTask maps a Taskwarrior task onto a local task. The Taskwarrior uuid
// becomes the task id so repeated imports update rather than duplicate.
func ToTask(tw Task, workMinutes int) (model.Task, error) {
	if tw.UUID == "" {
		return model.Task{}, fmt.Errorf("task %q has no uuid", tw.Description)
	}
	t := model.Task{
		ID:                 tw.UUID,
		Title:              tw.Description,
		Status:             mapStatus(tw),
		Priority:           mapPriority(tw.Priority),
		Tags:               []string{},
		EstimatedPomodoros: 1,
	}

	if tw.Project != "" {
		t.Tags = append(t.Tags, tw.Project)
	}
	t.Tags = append(t.Tags, tw.Tags...)

	notes := make([]string, 0, len(tw.Annotations))
	for _, a := range tw.Annotations {
		notes = append(notes, a.Description)
	}
	t.Description = strings.Join(notes, "\n")

	t.DueDate = first(tw.Due, tw.Scheduled)

	pomodoro := time.Duration(workMinutes) * time.Minute
	if est, err := util.ParseDuration(tw.Est); err != nil {
		return model.Task{}, fmt.Errorf("task %s: est: %w", tw.UUID, err)
	} else if est > 0 && pomodoro > 0 {
		t.EstimatedPomodoros = int(math.Ceil(float64(est) / float64(pomodoro)))
	}
	if act, err := util.ParseDuration(tw.Act); err != nil {
		return model.Task{}, fmt.Errorf("task %s: act: %w", tw.UUID, err)
	} else if act > 0 && pomodoro > 0 {
		t.CompletedPomodoros = int(act / pomodoro)
	}

	if created := tw.Entry.Ptr(); created != nil {
		t.CreatedAt = *created
	}
	t.UpdatedAt = t.CreatedAt
	if updated := first(tw.Modified, tw.End); updated != nil {
		t.UpdatedAt = *updated
	}
	return t.Canonical(), nil
}

func mapStatus(tw Task) model.TaskStatus {
	switch tw.Status {
	case StatusCompleted:
		return model.StatusCompleted
	case StatusDeleted:
		return model.StatusCancelled
	case StatusPending, StatusWaiting:
		if tw.Started() {
			return model.StatusInProgress
		}
	}
	return model.StatusPending
}

func mapPriority(p string) model.TaskPriority {
	switch p {
	case "H":
		return model.PriorityHigh
	case "L":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// Import converts tasks and merges them into store. Recurrence templates
// are skipped; their generated instances are imported like any other task.
func Import(ctx context.Context, store importer.Store, tasks []Task, workMinutes int) (importer.Stats, error) {
	converted := make([]model.Task, 0, len(tasks))
	skipped := 0
	for _, tw := range tasks {
		if tw.Status == StatusRecurring {
			skipped++
			continue
		}
		t, err := ToTask(tw, workMinutes)
		if err != nil {
			return importer.Stats{}, err
		}
		converted = append(converted, t)
	}
	stats, err := importer.Merge(ctx, store, converted)
	stats.Skipped = skipped
	return stats, err
}
