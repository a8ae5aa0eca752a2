package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"tvidentify/internal/logging"
)

const (
	databaseName = "extractions.db"
	lockDirName  = "locks"
	lockRetry    = 250 * time.Millisecond
	// Fixed width so created_at sorts and compares as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

const schema = `CREATE TABLE IF NOT EXISTS extractions (
    cache_key    TEXT PRIMARY KEY,
    source_path  TEXT NOT NULL,
    track_index  INTEGER NOT NULL,
    language     TEXT NOT NULL DEFAULT '',
    event_count  INTEGER NOT NULL DEFAULT 0,
    fingerprint  TEXT NOT NULL DEFAULT '',
    payload      BLOB NOT NULL,
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extractions_created ON extractions(created_at);
CREATE INDEX IF NOT EXISTS idx_extractions_source ON extractions(source_path);`

// ErrLocked is returned by Lock when another process holds the key.
var ErrLocked = errors.New("cache: extraction already in progress")

// Entry is one cached extraction. Payload is opaque to the cache.
type Entry struct {
	Key         string
	SourcePath  string
	TrackIndex  int
	Language    string
	EventCount  int
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

// Cache is the SQLite-backed extraction cache.
type Cache struct {
	db      *sql.DB
	dir     string
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Open creates dir if needed and opens the cache database inside it.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, lockDirName), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, databaseName))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &Cache{
		db:      db,
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "cache"),
		nowFunc: time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Lookup returns the entry stored under key.
func (c *Cache) Lookup(ctx context.Context, key string) (Entry, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT cache_key, source_path, track_index, language,
        event_count, fingerprint, payload, created_at FROM extractions WHERE cache_key = ?`, key)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", key, err)
	}
	return entry, true, nil
}

// Store inserts or replaces entry. A zero CreatedAt is set to now.
func (c *Cache) Store(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Key) == "" {
		return errors.New("cache key cannot be empty")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.nowFunc()
	}
	_, err := c.db.ExecContext(ctx, `INSERT INTO extractions (
            cache_key, source_path, track_index, language, event_count, fingerprint, payload, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(cache_key) DO UPDATE SET
            source_path = excluded.source_path,
            track_index = excluded.track_index,
            language = excluded.language,
            event_count = excluded.event_count,
            fingerprint = excluded.fingerprint,
            payload = excluded.payload,
            created_at = excluded.created_at`,
		entry.Key,
		entry.SourcePath,
		entry.TrackIndex,
		entry.Language,
		entry.EventCount,
		entry.Fingerprint,
		entry.Payload,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store %s: %w", entry.Key, err)
	}
	c.logger.Debug("cached extraction",
		logging.String(logging.FieldSource, entry.SourcePath),
		logging.Int("events", entry.EventCount),
	)
	return nil
}

// List returns all entries, newest first, without payloads.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT cache_key, source_path, track_index, language,
        event_count, fingerprint, X'', created_at FROM extractions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the entry stored under key and reports whether it existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM extractions WHERE cache_key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Prune removes entries older than maxAge and returns how many were removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := c.nowFunc().Add(-maxAge).UTC().Format(timeLayout)
	res, err := c.db.ExecContext(ctx, `DELETE FROM extractions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune extractions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		c.logger.Info("pruned cached extractions",
			logging.EventType("cache_pruned"),
			logging.Int64("removed", n),
			logging.Duration("max_age", maxAge),
		)
	}
	return int(n), nil
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM extractions`)
	if err != nil {
		return 0, fmt.Errorf("clear extractions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Lock takes the advisory lock for key, waiting until ctx is done. The
// returned function releases it.
func (c *Cache) Lock(ctx context.Context, key string) (func(), error) {
	lock := flock.New(filepath.Join(c.dir, lockDirName, key+".lock"))
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release extraction lock",
				logging.EventType("cache_unlock_failed"),
				logging.Error(err),
				logging.Hint("remove stale files from the cache locks directory"),
				logging.Impact("later runs may wait for the lock"),
			)
		}
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry   Entry
		created string
	)
	if err := row.Scan(&entry.Key, &entry.SourcePath, &entry.TrackIndex, &entry.Language,
		&entry.EventCount, &entry.Fingerprint, &entry.Payload, &created); err != nil {
		return Entry{}, err
	}
	ts, err := time.Parse(timeLayout, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	entry.CreatedAt = ts
	if len(entry.Payload) == 0 {
		entry.Payload = nil
	}
	return entry, nil
}
