package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed local state: configuration-fetch cache and run
// history.
type Store struct {
	db   *sql.DB
	path string
}

// Config holds store configuration.
type Config struct {
	// Path is the database file path.
	Path string
}

// NewStore creates a store instance. The database is not opened until Init.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("stores: database path is required")
	}
	return &Store{path: cfg.Path}, nil
}

// Init opens the database and applies migrations.
func (s *Store) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("stores: open database: %w", err)
	}

	// One short-lived caller; no pool to speak of.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("stores: ping database: %w", err)
	}

	s.db = db
	return s.migrate()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate applies the embedded schema migrations.
func (s *Store) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("stores: create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("stores: create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("stores: create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("stores: run migrations: %w", err)
	}
	return nil
}

// GetCached returns the cached value for key if it was fetched less than
// maxAge ago.
func (s *Store) GetCached(ctx context.Context, key string, maxAge time.Duration) (string, bool, error) {
	query := `SELECT value, fetched_at FROM kv_cache WHERE key = ?`

	var value string
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("stores: read cache entry: %w", err)
	}

	if time.Since(fetchedAt) > maxAge {
		return "", false, nil
	}
	return value, true, nil
}

// PutCached stores a freshly fetched value, replacing any previous entry.
func (s *Store) PutCached(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_cache (key, value, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, fetched_at = excluded.fetched_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("stores: write cache entry: %w", err)
	}
	return nil
}

// CreateRun records the start of an invocation.
func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, command, key, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Command,
		run.Key,
		run.Status,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("stores: create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of an invocation.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, errMsg string) error {
	query := `UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`

	var errValue *string
	if errMsg != "" {
		errValue = &errMsg
	}

	result, err := s.db.ExecContext(ctx, query, status, errValue, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("stores: finish run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("stores: finish run: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stores: run %s not found", id)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, command, key, status, error, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run := &Run{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Command,
		&run.Key,
		&run.Status,
		&run.Error,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stores: run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("stores: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, command, key, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("stores: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.Command,
			&run.Key,
			&run.Status,
			&run.Error,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("stores: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
