// Package index remembers which calendar event mirrors which task, so the
// mirror can fetch an event by id instead of searching for it.
package index

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/harrisonrobin/tomato/pkg/util"
)

const indexFile = "events.json"

// EventIndex maps task ids to calendar event ids. It is persisted as a flat
// JSON object under the data directory.
type EventIndex struct {
	path string

	mu     sync.RWMutex
	events map[string]string
	dirty  bool
}

// Open loads {dir}/events.json. A missing file yields an empty index.
func Open(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		path:   filepath.Join(dir, indexFile),
		events: make(map[string]string),
	}
	if _, err := util.ReadJSONFile(idx.path, &idx.events); err != nil {
		return nil, fmt.Errorf("event index: %w", err)
	}
	return idx, nil
}

// Path is the backing file.
func (idx *EventIndex) Path() string { return idx.path }

// Save writes the index if it changed.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	if err := util.WriteJSONFile(idx.path, idx.events); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event id mirrored for taskID, or "".
func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.events[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.events[taskID] != eventID {
		idx.events[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.events[taskID]; ok {
		delete(idx.events, taskID)
		idx.dirty = true
	}
}

// Retain drops every mapping whose task id keep rejects and returns how many
// were dropped.
func (idx *EventIndex) Retain(keep func(taskID string) bool) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	dropped := 0
	for taskID := range idx.events {
		if !keep(taskID) {
			delete(idx.events, taskID)
			dropped++
		}
	}
	if dropped > 0 {
		idx.dirty = true
	}
	return dropped
}

func (idx *EventIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.events)
}
