package taskwarrior

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/tomato/pkg/importer"
	"github.com/harrisonrobin/tomato/pkg/model"
	"github.com/harrisonrobin/tomato/pkg/store"
)

func parse(t *testing.T, in string) []Task {
	t.Helper()
	tasks, err := NewClient().ParseTasks(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseTasks: %v", err)
	}
	return tasks
}

func TestToTask(t *testing.T) {
	tasks := parse(t, `[{
		"uuid": "u1", "description": "Write report", "status": "pending",
		"priority": "H", "project": "work", "tags": ["q1"],
		"entry": "20230101T080000Z", "modified": "20230102T090000Z",
		"scheduled": "20230105T100000Z", "start": "20230102T090000Z",
		"est": "PT1H", "act": "PT30M",
		"annotations": [{"description": "first"}, {"description": "second"}]
	}]`)

	got, err := ToTask(tasks[0], 25)
	if err != nil {
		t.Fatalf("ToTask: %v", err)
	}
	if got.ID != "u1" || got.Title != "Write report" {
		t.Errorf("unexpected identity %q %q", got.ID, got.Title)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("started task should be in_progress, got %s", got.Status)
	}
	if got.Priority != model.PriorityHigh {
		t.Errorf("expected high priority, got %s", got.Priority)
	}
	if strings.Join(got.Tags, ",") != "work,q1" {
		t.Errorf("expected project then tags, got %v", got.Tags)
	}
	if got.Description != "first\nsecond" {
		t.Errorf("unexpected description %q", got.Description)
	}
	if got.DueDate == nil || !got.DueDate.Equal(time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("scheduled should become the due date, got %v", got.DueDate)
	}
	if got.EstimatedPomodoros != 3 || got.CompletedPomodoros != 1 {
		t.Errorf("expected 3 estimated / 1 completed, got %d / %d", got.EstimatedPomodoros, got.CompletedPomodoros)
	}
	if !got.UpdatedAt.Equal(time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("modified should become updated_at, got %v", got.UpdatedAt)
	}
}

func TestToTaskStatuses(t *testing.T) {
	tests := map[Status]model.TaskStatus{
		"pending":   model.StatusPending,
		"waiting":   model.StatusPending,
		"recurring": model.StatusPending,
		"completed": model.StatusCompleted,
		"deleted":   model.StatusCancelled,
	}
	for in, want := range tests {
		got, err := ToTask(Task{UUID: "u", Status: in}, 25)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != want {
			t.Errorf("%s: got %s, want %s", in, got.Status, want)
		}
	}
	if _, err := ToTask(Task{Description: "no uuid"}, 25); err == nil {
		t.Error("expected error for task without uuid")
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "tomato.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	first := parse(t, `[
		{"uuid":"u1","description":"one","status":"pending","entry":"20230101T080000Z","modified":"20230101T080000Z"},
		{"uuid":"u2","description":"two","status":"pending","entry":"20230101T080000Z","modified":"20230101T080000Z"},
		{"uuid":"r1","description":"standup","status":"recurring","recur":"daily","entry":"20230101T080000Z"}
	]`)
	stats, err := Import(ctx, s, first, 25)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats != (importer.Stats{Created: 2, Skipped: 1}) {
		t.Errorf("first import: %+v", stats)
	}

	second := parse(t, `[
		{"uuid":"u1","description":"one, renamed","status":"completed","entry":"20230101T080000Z","modified":"20230103T080000Z"},
		{"uuid":"u2","description":"two","status":"pending","entry":"20230101T080000Z","modified":"20230101T080000Z"}
	]`)
	stats, err = Import(ctx, s, second, 25)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats != (importer.Stats{Updated: 1, Unchanged: 1}) {
		t.Errorf("second import: %+v", stats)
	}

	if _, err := s.GetTask(ctx, "r1"); err == nil {
		t.Error("recurrence template should not be imported")
	}

	got, err := s.GetTask(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "one, renamed" || got.Status != model.StatusCompleted {
		t.Errorf("update not applied: %+v", got)
	}
}
