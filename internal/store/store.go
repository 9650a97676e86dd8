package store

import (
	"context"
	"time"

	"github.com/nhle/inbox/internal/model"
)

// SyncRun records one load attempt. Message content is never stored.
type SyncRun struct {
	ID           string    `db:"id"`
	Seq          uint64    `db:"seq"`
	SourceCount  int       `db:"source_count"`
	MessageCount int       `db:"message_count"`
	Error        string    `db:"error"`
	StartedAt    time.Time `db:"started_at"`
	FinishedAt   time.Time `db:"finished_at"`
}

// Failed reports whether the run ended in an error.
func (r SyncRun) Failed() bool { return r.Error != "" }

// Store defines the persistence interface for source registrations and
// sync history.
type Store interface {
	// === Sources ===

	UpsertSource(ctx context.Context, src model.SourceConfig) (model.SourceConfig, error)
	GetSources(ctx context.Context) ([]model.SourceConfig, error)
	DeleteSource(ctx context.Context, id string) error

	// === Sync history ===

	RecordSyncRun(ctx context.Context, run SyncRun) error
	LastSyncRun(ctx context.Context) (*SyncRun, error)
	GetSyncRuns(ctx context.Context, limit int) ([]SyncRun, error)
}
