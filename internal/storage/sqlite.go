package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpequegn/ubench/internal/stats"
)

// statsRow mirrors one row of run_samples; toStats rebuilds a stats.Stats
// from it.
type statsRow struct {
	n                                              int
	min, max, median                               int64
	mean, stddev, stderr, ci99, skew, kurtosis, tc  float64
	outliers                                        int
}

func (r statsRow) toStats() stats.Stats {
	return stats.Stats{
		Min: r.min, Max: r.max, Mean: r.mean, Median: r.median,
		StdDev: r.stddev, StdErr: r.stderr, CI99: r.ci99,
		Skew: r.skew, Kurtosis: r.kurtosis, TimeCorr: r.tc,
		Outliers: r.outliers, BatchesFinal: r.n,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (but does not yet initialize the schema of) a
// SQLite-backed Storage at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStorage{db: db, path: path}, nil
}

// Init creates the schema if it does not already exist.
func (s *SQLiteStorage) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS suites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		processes INTEGER NOT NULL,
		threads INTEGER NOT NULL,
		ns_per_call INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		killed TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_suites_name ON suites(name);
	CREATE INDEX IF NOT EXISTS idx_suites_started_at ON suites(started_at);

	CREATE TABLE IF NOT EXISTS run_samples (
		suite_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		n INTEGER NOT NULL,
		min INTEGER NOT NULL,
		max INTEGER NOT NULL,
		mean REAL NOT NULL,
		median INTEGER NOT NULL,
		stddev REAL NOT NULL,
		stderr REAL NOT NULL,
		ci99 REAL NOT NULL,
		skew REAL NOT NULL,
		kurtosis REAL NOT NULL,
		timecorr REAL NOT NULL,
		outliers INTEGER NOT NULL,
		PRIMARY KEY (suite_id, kind),
		FOREIGN KEY (suite_id) REFERENCES suites(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists one completed run and both its raw and corrected
// statistics rows in a single transaction.
func (s *SQLiteStorage) SaveRun(rec *RunRecord) error {
	if rec == nil {
		return fmt.Errorf("run record cannot be nil")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		INSERT INTO suites (name, started_at, processes, threads, ns_per_call, samples, errors, killed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Name, rec.StartedAt, rec.Processes, rec.Threads, rec.NsPerCall, rec.Samples, rec.Errors, rec.Killed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	suiteID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_samples (suite_id, kind, n, min, max, mean, median, stddev, stderr, ci99, skew, kurtosis, timecorr, outliers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for kind, st := range map[string]struct {
		n, min, max, median int64
		mean, stddev, stderr, ci99, skew, kurtosis, timecorr float64
		outliers int
	}{
		"raw": {
			n: int64(rec.Raw.BatchesFinal), min: rec.Raw.Min, max: rec.Raw.Max, median: rec.Raw.Median,
			mean: rec.Raw.Mean, stddev: rec.Raw.StdDev, stderr: rec.Raw.StdErr, ci99: rec.Raw.CI99,
			skew: rec.Raw.Skew, kurtosis: rec.Raw.Kurtosis, timecorr: rec.Raw.TimeCorr, outliers: rec.Raw.Outliers,
		},
		"corrected": {
			n: int64(rec.Corrected.BatchesFinal), min: rec.Corrected.Min, max: rec.Corrected.Max, median: rec.Corrected.Median,
			mean: rec.Corrected.Mean, stddev: rec.Corrected.StdDev, stderr: rec.Corrected.StdErr, ci99: rec.Corrected.CI99,
			skew: rec.Corrected.Skew, kurtosis: rec.Corrected.Kurtosis, timecorr: rec.Corrected.TimeCorr, outliers: rec.Corrected.Outliers,
		},
	} {
		_, err := stmt.Exec(suiteID, kind, st.n, st.min, st.max, st.mean, st.median, st.stddev, st.stderr, st.ci99, st.skew, st.kurtosis, st.timecorr, st.outliers)
		if err != nil {
			return fmt.Errorf("failed to insert %s stats: %w", kind, err)
		}
	}

	return tx.Commit()
}

// Trend returns up to limit most recent runs for name, oldest first.
func (s *SQLiteStorage) Trend(name string, limit int) ([]*RunRecord, error) {
	query := `
		SELECT id, name, started_at, processes, threads, ns_per_call, samples, errors, killed
		FROM suites
		WHERE name = ?
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend: %w", err)
	}
	defer rows.Close()

	var recs []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.StartedAt, &rec.Processes, &rec.Threads, &rec.NsPerCall, &rec.Samples, &rec.Errors, &rec.Killed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := s.loadStats(rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// reverse into oldest-first order for trend analysis
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

func (s *SQLiteStorage) loadStats(rec *RunRecord) error {
	rows, err := s.db.Query(`
		SELECT kind, n, min, max, mean, median, stddev, stderr, ci99, skew, kurtosis, timecorr, outliers
		FROM run_samples
		WHERE suite_id = ?
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int64
		var outliers int
		var min, max, median int64
		var mean, stddev, stderr, ci99, skew, kurtosis, timecorr float64
		if err := rows.Scan(&kind, &n, &min, &max, &mean, &median, &stddev, &stderr, &ci99, &skew, &kurtosis, &timecorr, &outliers); err != nil {
			return fmt.Errorf("failed to scan stats: %w", err)
		}
		st := statsRow{
			n: int(n), min: min, max: max, median: median,
			mean: mean, stddev: stddev, stderr: stderr, ci99: ci99,
			skew: skew, kurtosis: kurtosis, tc: timecorr, outliers: outliers,
		}
		switch kind {
		case "raw":
			rec.Raw = st.toStats()
		case "corrected":
			rec.Corrected = st.toStats()
		}
	}
	return rows.Err()
}

// Prune removes runs older than retentionDays.
func (s *SQLiteStorage) Prune(retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.Exec(`DELETE FROM suites WHERE started_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune old records: %w", err)
	}
	return nil
}
