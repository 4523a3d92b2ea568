package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/config"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
)

type dbFile struct {
	name    string
	file    string
	profile database.DatabaseProfile
	slot    func(*Container) **database.DB
}

// sessions.db holds navigation state; client_data.db is a rebuildable cache.
var dbFiles = []dbFile{
	{database.NameSessions, "sessions.db", database.ProfileStandard, func(c *Container) **database.DB { return &c.SessionsDB }},
	{database.NameClientData, "client_data.db", database.ProfileCache, func(c *Container) **database.DB { return &c.ClientDataDB }},
}

// InitializeDatabases opens and migrates every navigator database under
// cfg.DataDir. On failure anything already opened is closed.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}
	ctx := context.Background()

	for _, f := range dbFiles {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, f.file),
			Profile: f.profile,
			Name:    f.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("open %s database: %w", f.name, err)
		}
		*f.slot(container) = db

		if err := db.Migrate(ctx); err != nil {
			container.Close()
			return nil, fmt.Errorf("migrate %s database: %w", f.name, err)
		}
		log.Debug().Str("database", f.name).Str("profile", string(f.profile)).Msg("Database ready")
	}

	log.Info().Str("data_dir", cfg.DataDir).Int("databases", len(dbFiles)).Msg("Databases initialized")
	return container, nil
}
