// Package database opens the navigator's SQLite files and applies their
// embedded schemas.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// DatabaseProfile selects durability and pool settings for a file.
type DatabaseProfile string

const (
	// ProfileCache trades durability for speed; the file can be rebuilt.
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard keeps session state across restarts.
	ProfileStandard DatabaseProfile = "standard"
)

// Database names known to Migrate.
const (
	NameSessions   = "sessions"
	NameClientData = "client_data"
)

var schemaFiles = map[string]string{
	NameSessions:   "schemas/sessions_schema.sql",
	NameClientData: "schemas/client_data_schema.sql",
}

type profileSettings struct {
	pragmas  []string
	maxOpen  int
	maxIdle  int
	idleTime time.Duration
}

var profiles = map[DatabaseProfile]profileSettings{
	ProfileCache: {
		pragmas:  []string{"synchronous(OFF)", "auto_vacuum(FULL)", "temp_store(MEMORY)"},
		maxOpen:  10,
		maxIdle:  2,
		idleTime: 10 * time.Minute,
	},
	ProfileStandard: {
		pragmas:  []string{"synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)", "temp_store(MEMORY)"},
		maxOpen:  25,
		maxIdle:  5,
		idleTime: 30 * time.Minute,
	},
}

// pragmas applied to every file regardless of profile
var commonPragmas = []string{"journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(ON)"}

// DB is an open navigator database.
type DB struct {
	conn *sql.DB
	path string
	name string
}

// Config describes one database file.
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string
}

// New opens the file at cfg.Path, creating its directory, and pings it.
// Paths starting with "file:" are passed through untouched.
func New(cfg Config) (*DB, error) {
	settings, ok := profiles[cfg.Profile]
	if cfg.Profile == "" {
		settings, ok = profiles[ProfileStandard], true
	}
	if !ok {
		return nil, fmt.Errorf("unknown database profile %q", cfg.Profile)
	}

	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path for %s: %w", cfg.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", cfg.Name, err)
		}
		path = abs
	}

	conn, err := sql.Open("sqlite", dsn(path, settings.pragmas))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(settings.maxOpen)
	conn.SetMaxIdleConns(settings.maxIdle)
	conn.SetConnMaxIdleTime(settings.idleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: path, name: cfg.Name}, nil
}

func dsn(path string, pragmas []string) string {
	q := url.Values{}
	for _, p := range append(append([]string{}, commonPragmas...), pragmas...) {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the pool for repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name used in logs and status output.
func (db *DB) Name() string {
	return db.name
}

// Migrate applies the embedded schema registered for this database name.
// Databases without a schema are left empty.
func (db *DB) Migrate(ctx context.Context) error {
	file, ok := schemaFiles[db.name]
	if !ok {
		return nil
	}
	ddl, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", file, err)
	}

	return WithTransaction(ctx, db.conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("failed to apply %s to %s: %w", file, db.name, err)
		}
		return nil
	})
}

// WithTransaction runs fn in a transaction that commits when fn returns nil
// and rolls back on error or panic.
func WithTransaction(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) (err error) {
	if conn == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

// Stats describes the on-disk footprint of a database.
type Stats struct {
	SizeBytes    int64
	WALSizeBytes int64
	// UsedBytes excludes pages on the freelist.
	UsedBytes int64
}

// GetStats reads file sizes and page counts for the status endpoint.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		SizeBytes:    fileSize(db.path),
		WALSizeBytes: fileSize(db.path + "-wal"),
	}

	var pages, pageSize, free int64
	for _, p := range []struct {
		pragma string
		dst    *int64
	}{
		{"page_count", &pages},
		{"page_size", &pageSize},
		{"freelist_count", &free},
	} {
		if err := db.conn.QueryRowContext(ctx, "PRAGMA "+p.pragma).Scan(p.dst); err != nil {
			return nil, fmt.Errorf("failed to read %s for %s: %w", p.pragma, db.name, err)
		}
	}
	stats.UsedBytes = (pages - free) * pageSize

	return stats, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
