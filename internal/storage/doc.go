// Package storage provides persistent storage of finished runs using SQLite.
//
// # Overview
//
// The storage package records one RunRecord per finished `ubench run
// --history path.db` invocation and serves the per-name history that
// `ubench trend` analyzes.
//
// # Features
//
//   - SQLite-based persistent storage
//   - One record per run, stamped with the run's start time
//   - Query by benchmark name (most recent runs, returned oldest first)
//   - Removal of runs older than a retention period (Prune)
//   - Indexed lookups by name and start time
//   - An optional TTL cache in front of Trend lookups (CachedStorage)
//
// # Usage
//
// Basic storage operations:
//
//	// Create storage instance
//	st, err := storage.NewSQLiteStorage("./runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	// Initialize schema
//	if err := st.Init(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Save one finished run
//	if err := st.SaveRun(rec); err != nil {
//	    log.Fatal(err)
//	}
//
// Benchmark history tracking:
//
//	// Last 10 runs of one benchmark, oldest first (0 = all runs)
//	history, err := st.Trend("noop", 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range history {
//	    fmt.Printf("%s: %d ns/call\n", r.StartedAt, r.NsPerCall)
//	}
//
// Cleanup old records:
//
//	// Remove runs older than 90 days
//	if err := st.Prune(90); err != nil {
//	    log.Fatal(err)
//	}
//
// # Database Schema
//
// ## suites table (one row per run)
//
//	CREATE TABLE suites (
//	    id INTEGER PRIMARY KEY AUTOINCREMENT,
//	    name TEXT NOT NULL,
//	    started_at DATETIME NOT NULL,
//	    processes INTEGER NOT NULL,
//	    threads INTEGER NOT NULL,
//	    ns_per_call INTEGER NOT NULL,
//	    samples INTEGER NOT NULL,
//	    errors INTEGER NOT NULL,
//	    killed TEXT NOT NULL,
//	    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
//	);
//
// ## run_samples table (one row per statistics kind: "raw", "corrected")
//
//	CREATE TABLE run_samples (
//	    suite_id INTEGER NOT NULL,
//	    kind TEXT NOT NULL,
//	    n INTEGER NOT NULL,
//	    min INTEGER NOT NULL,
//	    max INTEGER NOT NULL,
//	    mean REAL NOT NULL,
//	    median INTEGER NOT NULL,
//	    stddev REAL NOT NULL,
//	    stderr REAL NOT NULL,
//	    ci99 REAL NOT NULL,
//	    skew REAL NOT NULL,
//	    kurtosis REAL NOT NULL,
//	    timecorr REAL NOT NULL,
//	    outliers INTEGER NOT NULL,
//	    PRIMARY KEY (suite_id, kind),
//	    FOREIGN KEY (suite_id) REFERENCES suites(id) ON DELETE CASCADE
//	);
//
// # Indexes
//
// The following indexes are created for query optimization:
//
//   - suites.name - Fast per-benchmark history queries
//   - suites.started_at - Fast ordering and age-based pruning
//
// # Data Model
//
// Each saved run creates:
//   - 1 suites row (identity, counters, display value)
//   - 2 run_samples rows (raw and corrected statistics)
//
// run_samples rows reference their suites row through the foreign key
// declared above. Prune deletes from suites only.
//
// # Thread Safety
//
// SQLiteStorage uses database/sql which provides connection pooling and
// is safe for concurrent use from multiple goroutines.
//
// However, SQLite itself has limitations with concurrent writes. For high-
// concurrency scenarios, consider:
//
//   - WAL mode: PRAGMA journal_mode=WAL
//   - Connection pool tuning
//   - External queue for writes
//
// # Transactions
//
// The SaveRun method uses a transaction to ensure atomicity:
//
//   - BEGIN TRANSACTION
//   - INSERT the run into suites
//   - INSERT its raw and corrected rows into run_samples
//   - COMMIT
//
// If any step fails, the entire operation is rolled back.
//
// # Data Retention
//
// Use the Prune method to implement data retention policies:
//
//	// Daily cleanup job
//	ticker := time.NewTicker(24 * time.Hour)
//	go func() {
//	    for range ticker.C {
//	        if err := st.Prune(90); err != nil {
//	            log.Printf("Cleanup failed: %v", err)
//	        }
//	    }
//	}()
//
// # Migration
//
// The Init method is idempotent and safe to call multiple times. It uses
// CREATE TABLE IF NOT EXISTS for schema creation.
//
// For schema changes, implement migrations manually:
//
//	ALTER TABLE run_samples ADD COLUMN new_field TEXT;
//
// # Backup
//
// To backup the database:
//
//	// Close connections first
//	st.Close()
//
//	// Copy the database file
//	cp runs.db runs_backup.db
//
//	// Reopen storage
//	st, _ = storage.NewSQLiteStorage("runs.db")
//	st.Init()
//
// Or use SQLite's BACKUP API for online backups.
package storage
