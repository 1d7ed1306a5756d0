package overdue

import (
	"testing"
	"time"
)

func TestTrackAndSweep(t *testing.T) {
	table, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	soon := now.Add(time.Hour)
	later := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	table.Track("T1", "e1", "write report", &soon, now)
	table.Track("T2", "e2", "file taxes", &later, now)
	table.Track("T3", "e3", "already late", &past, now)
	table.Track("T4", "e4", "no due date", nil, now)

	if table.Len() != 2 {
		t.Fatalf("expected 2 tracked entries, got %d", table.Len())
	}

	swept := table.Sweep(now.Add(2 * time.Hour))
	if len(swept) != 1 || swept[0].TaskID != "T1" || swept[0].EventID != "e1" {
		t.Fatalf("unexpected sweep result: %+v", swept)
	}
	if _, ok := table.Get("T1"); ok {
		t.Error("swept entry should be removed")
	}
}

func TestSweepOrdersByDue(t *testing.T) {
	table, _ := Open(t.TempDir())
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := now.Add(2*time.Hour), now.Add(time.Hour)
	table.Track("A", "ea", "a", &a, now)
	table.Track("B", "eb", "b", &b, now)

	swept := table.Sweep(now.Add(24 * time.Hour))
	if len(swept) != 2 || swept[0].TaskID != "B" || swept[1].TaskID != "A" {
		t.Fatalf("expected B then A, got %+v", swept)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	table, _ := Open(dir)
	now := time.Now()
	due := now.Add(time.Hour)
	table.Track("T1", "e1", "x", &due, now)
	if err := table.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	e, ok := reloaded.Get("T1")
	if !ok || e.EventID != "e1" || !e.Due.Equal(due) {
		t.Fatalf("unexpected entry after reload: %+v", e)
	}
}

func TestNextIsEarliestPending(t *testing.T) {
	table, _ := Open(t.TempDir())
	if _, ok := table.Next(); ok {
		t.Fatal("empty table has no next entry")
	}
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := now.Add(3*time.Hour), now.Add(time.Hour)
	table.Track("A", "ea", "a", &a, now)
	table.Track("B", "eb", "b", &b, now)

	next, ok := table.Next()
	if !ok || next.TaskID != "B" {
		t.Fatalf("expected B next, got %+v", next)
	}
	if table.Len() != 2 {
		t.Error("Next must not remove entries")
	}
}
