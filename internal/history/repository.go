package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/dabcheck/internal/policy"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines the interface for run history persistence.
type Repository interface {
	Record(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	ListByProject(ctx context.Context, projectPath string, limit int) ([]Run, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a run and its findings in one transaction.
func (r *SQLiteRepository) Record(ctx context.Context, run *Run) error {
	if run.ID == "" || run.ProjectPath == "" {
		return ErrInvalidRun
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	const runQuery = `INSERT INTO validation_runs (id, project_path, started_at, duration_ms,
		strict, files, errors, warnings, suggestions, exit_code, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, runQuery,
		run.ID, run.ProjectPath, run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds(),
		boolToInt(run.Strict), run.Files, run.Errors, run.Warnings, run.Suggestions, run.ExitCode,
		nullStr(run.ReportPath))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	const findingQuery = `INSERT INTO run_findings (run_id, seq, severity, rule, file, path, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i, f := range run.Findings {
		_, err := tx.ExecContext(ctx, findingQuery,
			run.ID, i, string(f.Severity), f.Rule, nullStr(f.File), nullStr(f.Path), f.Message)
		if err != nil {
			return fmt.Errorf("inserting finding %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns a single run by ID, with its findings.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	const query = `SELECT id, project_path, started_at, duration_ms, strict, files,
		errors, warnings, suggestions, exit_code, report_path
		FROM validation_runs WHERE id = ?`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	findings, err := r.findings(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Findings = findings
	return run, nil
}

// List returns the most recent runs across all projects, newest first.
// A limit of zero or less returns every run.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Run, error) {
	const query = `SELECT id, project_path, started_at, duration_ms, strict, files,
		errors, warnings, suggestions, exit_code, report_path
		FROM validation_runs ORDER BY started_at DESC, id LIMIT ?`
	return r.queryRuns(ctx, query, sqlLimit(limit))
}

// ListByProject returns the most recent runs for one project, newest first.
func (r *SQLiteRepository) ListByProject(ctx context.Context, projectPath string, limit int) ([]Run, error) {
	const query = `SELECT id, project_path, started_at, duration_ms, strict, files,
		errors, warnings, suggestions, exit_code, report_path
		FROM validation_runs WHERE project_path = ? ORDER BY started_at DESC, id LIMIT ?`
	return r.queryRuns(ctx, query, projectPath, sqlLimit(limit))
}

func (r *SQLiteRepository) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func (r *SQLiteRepository) findings(ctx context.Context, runID string) ([]policy.Finding, error) {
	const query = `SELECT severity, rule, file, path, message
		FROM run_findings WHERE run_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []policy.Finding
	for rows.Next() {
		var f policy.Finding
		var severity string
		var file, path sql.NullString
		if err := rows.Scan(&severity, &f.Rule, &file, &path, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning finding row: %w", err)
		}
		f.Severity = policy.Severity(severity)
		f.File = file.String
		f.Path = path.String
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	return findings, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt string
	var durationMS int64
	var strict int
	var reportPath sql.NullString

	err := s.Scan(&run.ID, &run.ProjectPath, &startedAt, &durationMS, &strict, &run.Files,
		&run.Errors, &run.Warnings, &run.Suggestions, &run.ExitCode, &reportPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.StartedAt = parseTime(startedAt)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Strict = strict != 0
	run.ReportPath = reportPath.String
	return &run, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s) //nolint:errcheck // Zero time on unparseable legacy rows
	}
	return t
}

// nullStr maps an empty string to NULL for nullable columns.
func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
