package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tables(t *testing.T, db *DB) map[string]bool {
	t.Helper()
	rows, err := db.Conn().Query("SELECT name FROM sqlite_master WHERE type='table'")
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		out[name] = true
	}
	require.NoError(t, rows.Err())
	return out
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("sessions", func(t *testing.T) {
		db := openTemp(t, NameSessions, ProfileStandard)
		require.NoError(t, db.Migrate(ctx))
		require.NoError(t, db.Migrate(ctx), "schema is idempotent")
		assert.True(t, tables(t, db)["sessions"])
	})

	t.Run("client data", func(t *testing.T) {
		db := openTemp(t, NameClientData, ProfileCache)
		require.NoError(t, db.Migrate(ctx))
		got := tables(t, db)
		for _, table := range []string{"yahoo_esg", "yahoo_profile", "yahoo_screener", "yahoo_news", "price_history", "newton_frontier"} {
			assert.True(t, got[table], table)
		}
	})

	t.Run("unregistered name stays empty", func(t *testing.T) {
		db := openTemp(t, "scratch", ProfileStandard)
		require.NoError(t, db.Migrate(ctx))
		assert.Empty(t, tables(t, db))
	})
}

func TestNew(t *testing.T) {
	t.Run("empty profile means standard", func(t *testing.T) {
		db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "x"})
		require.NoError(t, err)
		defer db.Close()

		assert.True(t, filepath.IsAbs(db.path))
		var mode string
		require.NoError(t, db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("unknown profile rejected", func(t *testing.T) {
		_, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Profile: "turbo", Name: "x"})
		assert.Error(t, err)
	})

	t.Run("nested directories are created", func(t *testing.T) {
		db, err := New(Config{Path: filepath.Join(t.TempDir(), "a", "b", "c.db"), Name: "c"})
		require.NoError(t, err)
		assert.NoError(t, db.Close())
	})
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"/tmp/a.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%285000%29&_pragma=foreign_keys%28ON%29&_pragma=x%281%29",
		dsn("/tmp/a.db", []string{"x(1)"}))
	assert.Contains(t, dsn("file:mem?mode=memory", nil), "file:mem?mode=memory&_pragma=")
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t, NameSessions, ProfileStandard)
	require.NoError(t, db.Migrate(ctx))

	insert := func(tx *sql.Tx, id string) {
		_, err := tx.Exec(`INSERT INTO sessions (id, payload, created_at, updated_at, expires_at) VALUES (?, x'80', 1, 1, 1)`, id)
		require.NoError(t, err)
	}
	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
		return n
	}

	boom := errors.New("boom")
	err := WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		insert(tx, "rolled-back")
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count())

	err = WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		insert(tx, "panicked")
		panic("bad")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
	assert.Equal(t, 0, count())

	require.NoError(t, WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		insert(tx, "kept")
		return nil
	}))
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(ctx, nil, func(*sql.Tx) error { return nil }))
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t, NameClientData, ProfileCache)
	require.NoError(t, db.Migrate(ctx))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.UsedBytes, int64(0))
	assert.GreaterOrEqual(t, stats.SizeBytes+stats.WALSizeBytes, int64(0))
}
