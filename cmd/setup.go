package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s (%d migrations applied)\n", path, len(applied))
}

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIPY_CLIENT_ID / SPOTIPY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'mtrack setup database'\n")
	r.writePlain("3. Run 'mtrack spotify auth' to connect your account\n")
	return nil
}
