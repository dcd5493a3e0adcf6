package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"konserve-go/internal/catalog/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCatalog implements the Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens a catalog database at path and migrates it to the
// latest schema. path can be a file path or ":memory:".
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" gets its own empty database,
	// so the in-memory catalog must stay on a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// RecordRun inserts a new run in the running state and returns its ID.
func (c *SQLiteCatalog) RecordRun(operation, archivePath string, startedAt time.Time) (string, error) {
	id := uuid.New().String()

	_, err := c.db.Exec(
		`INSERT INTO runs (id, operation, archive_path, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, operation, archivePath, StatusRunning, startedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as completed or failed.
func (c *SQLiteCatalog) FinishRun(id, status string, fileCount int64, finishedAt time.Time) error {
	res, err := c.db.Exec(
		`UPDATE runs SET status = ?, file_count = ?, finished_at = ? WHERE id = ?`,
		status, fileCount, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *SQLiteCatalog) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, operation, archive_path, file_count, status, started_at, finished_at
	          FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finishedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Operation, &r.ArchivePath, &r.FileCount, &r.Status, &r.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Close releases the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// Compile-time check that SQLiteCatalog implements the Catalog interface
var _ Catalog = (*SQLiteCatalog)(nil)
