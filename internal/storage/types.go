package storage

import (
	"time"

	"github.com/jpequegn/ubench/internal/stats"
)

// RunRecord is one completed invocation's persisted summary: everything
// a trend query needs, independent of the
// in-process SharedState it was derived from.
type RunRecord struct {
	ID        int64
	Name      string
	StartedAt time.Time
	Processes int
	Threads   int
	NsPerCall int64
	Samples   int64
	Errors    int64
	Killed    string // "none" | "long" | "interrupt"
	Raw       stats.Stats
	Corrected stats.Stats
}

// Storage is the history sink a finished run may optionally write to
// (`ubench run --history path.db`) and the query surface `ubench trend`
// reads from.
type Storage interface {
	// Init creates the schema if it does not already exist.
	Init() error
	// Close closes the underlying connection.
	Close() error
	// SaveRun persists one completed run.
	SaveRun(rec *RunRecord) error
	// Trend returns up to limit most recent runs for name, oldest first
	// (limit<=0 means unbounded).
	Trend(name string, limit int) ([]*RunRecord, error)
	// Prune removes runs older than retentionDays.
	Prune(retentionDays int) error
}
