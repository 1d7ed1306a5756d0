// Package overdue tracks mirrored tasks whose due date is still ahead, so a
// later sweep can mark their calendar events overdue without reloading
// every task.
package overdue

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/harrisonrobin/tomato/pkg/util"
)

const tableFile = "pending_due.json"

// Entry is one event waiting for its task's due date to pass.
type Entry struct {
	TaskID  string    `json:"task_id"`
	EventID string    `json:"event_id"`
	Summary string    `json:"summary"`
	Due     time.Time `json:"due"`
}

// Table is keyed by task id.
type Table struct {
	path    string
	entries map[string]Entry
	dirty   bool
}

type tableFileV1 struct {
	Entries map[string]Entry `json:"entries"`
}

// Open loads {dir}/pending_due.json, or returns an empty table.
func Open(dir string) (*Table, error) {
	t := &Table{
		path:    filepath.Join(dir, tableFile),
		entries: make(map[string]Entry),
	}
	var f tableFileV1
	ok, err := util.ReadJSONFile(t.path, &f)
	if err != nil {
		return nil, fmt.Errorf("overdue table: %w", err)
	}
	if ok && f.Entries != nil {
		t.entries = f.Entries
	}
	return t, nil
}

// Save writes the table if it changed.
func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := util.WriteJSONFile(t.path, tableFileV1{Entries: t.entries}); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

func (t *Table) Len() int { return len(t.entries) }

// Get returns the entry tracked for taskID.
func (t *Table) Get(taskID string) (Entry, bool) {
	e, ok := t.entries[taskID]
	return e, ok
}

// Track records a task whose due date lies after now. A task already due,
// or with no due date, is dropped from the table.
func (t *Table) Track(taskID, eventID, summary string, due *time.Time, now time.Time) {
	if due == nil || !due.After(now) {
		t.Remove(taskID)
		return
	}
	e := Entry{TaskID: taskID, EventID: eventID, Summary: summary, Due: due.UTC()}
	if old, ok := t.entries[taskID]; !ok || old != e {
		t.entries[taskID] = e
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, ok := t.entries[taskID]; ok {
		delete(t.entries, taskID)
		t.dirty = true
	}
}

// Next returns the entry that falls due first.
func (t *Table) Next() (Entry, bool) {
	sorted := t.sorted(func(Entry) bool { return true })
	if len(sorted) == 0 {
		return Entry{}, false
	}
	return sorted[0], true
}

// Sweep removes and returns the entries due before now, earliest first.
func (t *Table) Sweep(now time.Time) []Entry {
	swept := t.sorted(func(e Entry) bool { return e.Due.Before(now) })
	for _, e := range swept {
		delete(t.entries, e.TaskID)
		t.dirty = true
	}
	return swept
}

func (t *Table) sorted(match func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Due.Equal(out[j].Due) {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].Due.Before(out[j].Due)
	})
	return out
}
