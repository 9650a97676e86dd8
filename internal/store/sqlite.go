package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/inbox/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// sourceRow mirrors the sources table.
type sourceRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Name      string    `db:"name"`
	BaseURL   string    `db:"base_url"`
	Enabled   bool      `db:"enabled"`
	Config    string    `db:"config"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpsertSource inserts or replaces a source configuration and returns it.
// If the source has no ID, a new UUID is generated.
func (s *SQLiteStore) UpsertSource(
	ctx context.Context,
	src model.SourceConfig,
) (model.SourceConfig, error) {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}

	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return src, fmt.Errorf("marshaling source config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, name, base_url, enabled, config, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			base_url = excluded.base_url,
			enabled = excluded.enabled,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		src.ID, src.Type, src.Name, src.BaseURL,
		src.Enabled, string(configJSON), time.Now().UTC(),
	)
	if err != nil {
		return src, fmt.Errorf("upserting source %s: %w", src.ID, err)
	}

	return src, nil
}

// GetSources retrieves all configured sources in creation order.
func (s *SQLiteStore) GetSources(
	ctx context.Context,
) ([]model.SourceConfig, error) {
	var rows []sourceRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM sources ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}

	sources := make([]model.SourceConfig, 0, len(rows))
	for _, r := range rows {
		src := model.SourceConfig{
			ID:      r.ID,
			Type:    r.Type,
			Name:    r.Name,
			BaseURL: r.BaseURL,
			Enabled: r.Enabled,
		}
		if r.Config != "" && r.Config != "null" {
			if err := json.Unmarshal([]byte(r.Config), &src.Config); err != nil {
				return nil, fmt.Errorf("unmarshaling config for source %s: %w", r.ID, err)
			}
		}
		sources = append(sources, src)
	}

	return sources, nil
}

// DeleteSource removes a source by ID.
func (s *SQLiteStore) DeleteSource(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source %s: %w", id, err)
	}
	return nil
}

// RecordSyncRun appends a load attempt to the history.
func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sync_runs (
			id, seq, source_count, message_count, error, started_at, finished_at
		) VALUES (
			:id, :seq, :source_count, :message_count, :error, :started_at, :finished_at
		)`,
		run,
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// LastSyncRun returns the most recently finished run, or nil when the
// history is empty.
func (s *SQLiteStore) LastSyncRun(ctx context.Context) (*SyncRun, error) {
	var run SyncRun
	err := s.db.GetContext(ctx, &run,
		"SELECT * FROM sync_runs ORDER BY finished_at DESC, rowid DESC LIMIT 1",
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last sync run: %w", err)
	}
	return &run, nil
}

// GetSyncRuns returns up to limit runs, newest first. limit <= 0 means 50.
func (s *SQLiteStore) GetSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []SyncRun
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM sync_runs ORDER BY finished_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	return runs, nil
}

var _ Store = (*SQLiteStore)(nil)
