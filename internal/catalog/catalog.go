// Package catalog records the history of backup and restore runs.
package catalog

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run operations.
const (
	OpBackup  = "backup"
	OpRestore = "restore"
)

// Run is one recorded backup or restore invocation.
type Run struct {
	ID          string
	Operation   string
	ArchivePath string
	FileCount   int64
	Status      string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Catalog persists run history.
type Catalog interface {
	// RecordRun inserts a new run in the running state and returns its ID.
	RecordRun(operation, archivePath string, startedAt time.Time) (string, error)

	// FinishRun marks a run as completed or failed and records how many
	// files it processed.
	FinishRun(id, status string, fileCount int64, finishedAt time.Time) error

	// ListRuns returns the most recent runs, newest first.
	// limit <= 0 means no limit.
	ListRuns(limit int) ([]Run, error)

	// Close releases the underlying storage.
	Close() error
}
