package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func getMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		Long: `migrate lleva el esquema a la última versión (goose, migraciones embebidas).

Ejemplos:
  api migrate --storage-driver sqlite --dsn ./health.db
  HEALTHINV_STORAGE_DSN=postgres://... api migrate`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == "memory" {
		return errors.New("migrate: storage driver is memory, nothing to migrate")
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	version, err := store.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("migrations applied", map[string]any{
		"driver":  cfg.Storage.Driver,
		"version": version,
	})
	return nil
}
