// Package history keeps a local record of transformation jobs so runs
// can be listed, resumed and inspected after the CLI exits.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a job id has no history row
var ErrNotFound = errors.New("job not found")

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	profile    TEXT NOT NULL DEFAULT '',
	project    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	target     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	work_dir   TEXT NOT NULL DEFAULT '',
	artifact   TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	ended_at   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at);
`

const jobColumns = "id, profile, project, source, target, status, reason, work_dir, artifact, started_at, ended_at"

// Job is one row of the local job history
type Job struct {
	ID        string    `json:"id" yaml:"id"`
	Profile   string    `json:"profile,omitempty" yaml:"profile,omitempty"`
	Project   string    `json:"project" yaml:"project"`
	Source    string    `json:"sourceVersion" yaml:"sourceVersion"`
	Target    string    `json:"targetVersion" yaml:"targetVersion"`
	Status    string    `json:"status" yaml:"status"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	WorkDir   string    `json:"workDir,omitempty" yaml:"workDir,omitempty"`
	Artifact  string    `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitzero" yaml:"endedAt,omitempty"`
}

// Store is a sqlite-backed job history
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure history database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a job row, replacing any previous row with the same id
func (s *Store) Record(j *Job) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Profile, j.Project, j.Source, j.Target, j.Status, j.Reason,
		j.WorkDir, j.Artifact, j.StartedAt.UnixMilli(), endedMilli(j.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record job %s: %w", j.ID, err)
	}
	return nil
}

// UpdateStatus updates the status and reason of an existing row
func (s *Store) UpdateStatus(id, status, reason string) error {
	res, err := s.db.Exec(`UPDATE jobs SET status = ?, reason = ? WHERE id = ?`, status, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return checkFound(res, id)
}

// Finish settles a row with its terminal status and end time
func (s *Store) Finish(id, status, reason, artifact string, endedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE jobs SET status = ?, reason = ?, artifact = ?, ended_at = ? WHERE id = ?`,
		status, reason, artifact, endedAt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return checkFound(res, id)
}

// Get returns the row for a job id
func (s *Store) Get(id string) (*Job, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	return j, nil
}

// List returns the most recent jobs, newest first
func (s *Store) List(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+jobColumns+` FROM jobs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(scan func(dest ...any) error) (*Job, error) {
	var j Job
	var started int64
	var ended sql.NullInt64
	err := scan(&j.ID, &j.Profile, &j.Project, &j.Source, &j.Target, &j.Status,
		&j.Reason, &j.WorkDir, &j.Artifact, &started, &ended)
	if err != nil {
		return nil, err
	}
	j.StartedAt = time.UnixMilli(started)
	if ended.Valid && ended.Int64 > 0 {
		j.EndedAt = time.UnixMilli(ended.Int64)
	}
	return &j, nil
}

func checkFound(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func endedMilli(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
