// Package testing holds shared fixtures and database helpers for the
// navigator's tests.
package testing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
)

// NewTestDB opens a migrated database named name in t's temp directory and
// closes it when the test ends. client_data uses the cache profile like
// production; other names use the standard profile. Names without an
// embedded schema yield an empty database.
func NewTestDB(t testing.TB, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	if name == database.NameClientData {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("open test database %s: %v", name, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database %s: %v", name, err)
	}
	return db
}
