package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mattn/go-sqlite3"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Retry budget for writes that hit SQLITE_BUSY or SQLITE_LOCKED after the
// driver's own busy timeout has expired.
const (
	lockRetryAttempts = 5
	lockRetryDelay    = 25 * time.Millisecond
	lockRetryMaxDelay = 500 * time.Millisecond
)

// Database is the SQLite-backed Store.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the database file at dbPath and applies
// the schema. The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS galleries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		directory TEXT UNIQUE,
		parent INTEGER REFERENCES galleries(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_galleries_parent ON galleries(parent);
	CREATE INDEX IF NOT EXISTS idx_galleries_name ON galleries(name);

	-- At most one directory-less gallery per name
	CREATE UNIQUE INDEX IF NOT EXISTS idx_galleries_name_nodir ON galleries(name) WHERE directory IS NULL;

	CREATE TABLE IF NOT EXISTS pictures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		gallery_id INTEGER NOT NULL REFERENCES galleries(id) ON DELETE CASCADE,
		format TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		sha1 TEXT NOT NULL,
		filesize INTEGER NOT NULL,
		external_id TEXT NOT NULL UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_pictures_gallery ON pictures(gallery_id);

	-- No foreign key: rows outlive their picture
	CREATE TABLE IF NOT EXISTS thumbnails (
		picture_id INTEGER PRIMARY KEY,
		picture_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_type INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS picture_tags (
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		picture_id INTEGER NOT NULL REFERENCES pictures(id) ON DELETE CASCADE,
		PRIMARY KEY (tag_id, picture_id)
	);

	CREATE INDEX IF NOT EXISTS idx_picture_tags_picture ON picture_tags(picture_id);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// readContext bounds a read by defaultTimeout and the caller's context.
func readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

// writeContext detaches a write from the caller's cancellation. An
// interrupted run still finishes the row it is writing.
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
}

// isLockedError reports whether err is SQLite refusing a write because
// another connection holds the lock.
func isLockedError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// exec runs a write statement, retrying while the database is locked.
func (d *Database) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return retry.DoWithData(
		func() (sql.Result, error) {
			return d.db.ExecContext(ctx, query, args...)
		},
		retry.Context(ctx),
		retry.Attempts(lockRetryAttempts),
		retry.Delay(lockRetryDelay),
		retry.MaxDelay(lockRetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isLockedError),
		retry.OnRetry(func(n uint, err error) {
			metrics.DBLockRetries.Inc()
			logging.Debug("Database locked, retrying write (attempt %d/%d): %v", n+1, lockRetryAttempts, err)
		}),
	)
}

// GetStats returns the row counts of every table. It satisfies
// metrics.StatsProvider.
func (d *Database) GetStats() (metrics.Stats, error) {
	done := observeQuery("stats")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM galleries),
			(SELECT COUNT(*) FROM pictures),
			(SELECT COUNT(*) FROM thumbnails),
			(SELECT COUNT(*) FROM tags)
	`).Scan(&stats.TotalGalleries, &stats.TotalPictures, &stats.TotalThumbnails, &stats.TotalTags)
	done(err)
	if err != nil {
		return metrics.Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}

	d.UpdateDBMetrics()
	return stats, nil
}

// Vacuum optimizes the database.
func (d *Database) Vacuum(ctx context.Context) error {
	done := observeQuery("vacuum")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "VACUUM")
	done(err)
	return err
}

// observeQuery starts timing a query and returns the function that records
// its outcome.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	logging.Debug("Database directory is writable")

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// WAL and SHM sidecars left behind by another user break writes
	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(sidecar)
		if err != nil {
			continue
		}
		logging.Debug("Sidecar file exists: %s (mode: %v, size: %d bytes)", sidecar, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only! Mode: %v - this will cause write failures", sidecar, info.Mode())
		if chmodErr := os.Chmod(sidecar, 0o600); chmodErr != nil {
			logging.Error("Failed to fix %s permissions: %v", sidecar, chmodErr)
		} else {
			logging.Info("Fixed %s permissions", sidecar)
		}
	}

	return nil
}
