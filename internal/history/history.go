package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/wikibase"
)

//go:embed migrations/*.sql
var migrations embed.FS

// FileName is the database file name inside the data directory.
const FileName = "wikibots.db"

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned when the database does not exist and creation
// was not requested.
var ErrNotFound = errors.New("history database not found")

// Store records tasks and runs.
type Store struct {
	db     *sql.DB
	dbPath string
	sq     sq.StatementBuilderType
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dir and applies pending migrations.
func Open(ctx context.Context, dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is a recorded task.
type Entry struct {
	ID         int64         `json:"id"`
	RunID      string        `json:"run_id"`
	Bot        string        `json:"bot"`
	MID        string        `json:"mid"`
	Title      string        `json:"title"`
	Outcome    model.Outcome `json:"outcome"`
	Reason     string        `json:"reason,omitempty"`
	ClaimsJSON string        `json:"claims,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Record stores a finished task.
func (s *Store) Record(ctx context.Context, task *model.Task) error {
	claims := task.NewClaims
	if claims == nil {
		claims = []*wikibase.Statement{}
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("failed to serialize claims: %w", err)
	}

	query, args, err := s.sq.Insert("tasks").
		Columns("run_id", "bot", "mid", "title", "outcome", "reason", "claims_json", "duration_ms", "recorded_at").
		Values(task.RunID, task.Bot, task.MID(), task.Page.Title, string(task.Outcome), task.Reason,
			string(claimsJSON), task.Duration.Milliseconds(), time.Now().UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record task %s: %w", task.MID(), err)
	}
	return nil
}

// Filter narrows Recent results. Zero values match everything.
type Filter struct {
	Bot     string
	Outcome model.Outcome
	MID     string
	RunID   string
	Limit   uint64
}

// Recent returns recorded tasks, newest first.
func (s *Store) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	q := s.sq.Select("id", "run_id", "bot", "mid", "title", "outcome", "reason", "claims_json", "duration_ms", "recorded_at").
		From("tasks").
		OrderBy("id DESC")
	if f.Bot != "" {
		q = q.Where(sq.Eq{"bot": f.Bot})
	}
	if f.Outcome != "" {
		q = q.Where(sq.Eq{"outcome": string(f.Outcome)})
	}
	if f.MID != "" {
		q = q.Where(sq.Eq{"mid": f.MID})
	}
	if f.RunID != "" {
		q = q.Where(sq.Eq{"run_id": f.RunID})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			outcome    string
			durationMS int64
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Bot, &e.MID, &e.Title, &outcome, &e.Reason, &e.ClaimsJSON, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		e.Outcome = model.Outcome(outcome)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.RecordedAt = parseTimestamp(recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of recorded tasks per outcome. An empty bot
// counts all bots.
func (s *Store) Counts(ctx context.Context, bot string) (map[model.Outcome]int, error) {
	q := s.sq.Select("outcome", "COUNT(*)").From("tasks").GroupBy("outcome")
	if bot != "" {
		q = q.Where(sq.Eq{"bot": bot})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// Run is a recorded bot run.
type Run struct {
	RunID       string    `json:"run_id"`
	Bot         string    `json:"bot"`
	DryRun      bool      `json:"dry_run"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Total       int       `json:"total"`
	Edited      int       `json:"edited"`
	Failed      int       `json:"failed"`
	Interrupted bool      `json:"interrupted"`
}

// RecordRun stores the totals of a finished run.
func (s *Store) RecordRun(ctx context.Context, summary *model.RunSummary) error {
	query, args, err := s.sq.Insert("runs").
		Columns("run_id", "bot", "dry_run", "started_at", "finished_at", "total", "edited", "failed", "interrupted").
		Values(summary.RunID, summary.Bot, summary.DryRun,
			summary.Started.UTC().Format(timeLayout), summary.Finished.UTC().Format(timeLayout),
			summary.Total(), summary.Count(model.OutcomeEdited), summary.Count(model.OutcomeFailed), summary.Interrupted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record run %s: %w", summary.RunID, err)
	}
	return nil
}

// Runs returns recorded runs, newest first. An empty bot lists all bots.
func (s *Store) Runs(ctx context.Context, bot string, limit uint64) ([]Run, error) {
	q := s.sq.Select("run_id", "bot", "dry_run", "started_at", "finished_at", "total", "edited", "failed", "interrupted").
		From("runs").
		OrderBy("started_at DESC")
	if bot != "" {
		q = q.Where(sq.Eq{"bot": bot})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.RunID, &r.Bot, &r.DryRun, &started, &finished, &r.Total, &r.Edited, &r.Failed, &r.Interrupted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Started = parseTimestamp(started)
		r.Finished = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// parseTimestamp accepts the stored layout and the formats SQLite itself
// produces.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
