package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"metafix/internal/config"
	"metafix/internal/media"
)

// Journal records runs backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Journal, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.JournalPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// BeginRun records the start of a run. Runs left in the running state by an
// earlier process for the same root are marked aborted.
func (j *Journal) BeginRun(ctx context.Context, id, root string, startedAt time.Time) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE root = ? AND status = ?`,
		RunAborted, root, RunRunning,
	); err != nil {
		return fmt.Errorf("mark stale runs: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		id, root, RunRunning, formatTime(startedAt),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return tx.Commit()
}

// Record appends events in one transaction.
func (j *Journal) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin events tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, stage, kind, path, target, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, ev := range events {
		at := ev.At
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx,
			ev.RunID, ev.Stage, ev.Kind, ev.Path,
			nullableString(ev.Target), nullableString(ev.Detail), formatTime(at),
		); err != nil {
			return fmt.Errorf("insert event for %s: %w", ev.Path, err)
		}
	}
	return tx.Commit()
}

// FinishRun stores the run's counts and marks it complete.
func (j *Journal) FinishRun(ctx context.Context, id string, counts Counts, finishedAt time.Time) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?,
            media_count = ?, sidecar_count = ?, matched_count = ?, derived_count = ?,
            orphaned_count = ?, renamed_count = ?, applied_count = ?, skipped_count = ?, failed_count = ?
         WHERE id = ?`,
		RunComplete, formatTime(finishedAt),
		counts.Media, counts.Sidecars, counts.Matched, counts.Derived,
		counts.Orphaned, counts.Renamed, counts.Applied, counts.Skipped, counts.Failed,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return media.Wrap(media.ErrNotFound, "journal", "finish run", id, nil)
	}
	return nil
}

const runColumns = `id, root, status, started_at, finished_at,
    media_count, sidecar_count, matched_count, derived_count,
    orphaned_count, renamed_count, applied_count, skipped_count, failed_count`

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run. A unique id prefix is accepted.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	if stripWildcards(id) == "" {
		return Run{}, media.Wrap(media.ErrValidation, "journal", "get run", "run id required", nil)
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripWildcards(id)+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, media.Wrap(media.ErrNotFound, "journal", "get run", id, nil)
	case 1:
		return found[0], nil
	default:
		return Run{}, media.Wrap(media.ErrValidation, "journal", "get run", "ambiguous run id prefix "+id, nil)
	}
}

// Events returns a run's events in recording order.
func (j *Journal) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, run_id, stage, kind, path, target, detail, created_at
         FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev             Event
			target, detail sql.NullString
			at             string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Stage, &ev.Kind, &ev.Path, &target, &detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Target = target.String
		ev.Detail = detail.String
		ev.At = parseTime(at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		status   string
		started  string
		finished sql.NullString
	)
	err := row.Scan(&run.ID, &run.Root, &status, &started, &finished,
		&run.Counts.Media, &run.Counts.Sidecars, &run.Counts.Matched, &run.Counts.Derived,
		&run.Counts.Orphaned, &run.Counts.Renamed, &run.Counts.Applied, &run.Counts.Skipped, &run.Counts.Failed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, media.Wrap(media.ErrNotFound, "journal", "scan run", "", err)
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// stripWildcards drops LIKE wildcards so an id prefix matches literally.
func stripWildcards(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
