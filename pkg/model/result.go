package model

import "time"

// SyncResult is the outcome of one sync run. Success is true iff Errors is
// empty; conflicts are reported but never count as failures.
type SyncResult struct {
	Success        bool      `json:"success"`
	SyncedTasks    int       `json:"synced_tasks"`
	SyncedSessions int       `json:"synced_sessions"`
	Conflicts      int       `json:"conflicts"`
	Errors         []string  `json:"errors"`
	CompletedAt    time.Time `json:"completed_at"`
}
