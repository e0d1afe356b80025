package main

import (
	"health-inventory/internal/platform/config"
	"health-inventory/internal/platform/logger"

	"github.com/spf13/cobra"
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "api",
		Short:   "Servicio de catálogo de vacunas",
		Long:    "api expone el catálogo de vacunas (alta, edición y reconstrucción de esquemas de dosis) sobre HTTP.",
		Version: Version,
		// Sin subcomando: levanta el servidor.
		RunE:          runServe,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().String("config", "", "archivo YAML de configuración")
	rootCmd.PersistentFlags().String("storage-driver", "", "memory | postgres | sqlite")
	rootCmd.PersistentFlags().String("dsn", "", "DSN de la base (postgres) o ruta del archivo (sqlite)")
	rootCmd.Flags().Int("port", 0, "puerto HTTP")

	rootCmd.AddCommand(getServeCmd(), getMigrateCmd())
	return rootCmd
}

// loadConfig aplica los flags por encima de lo que resuelve config.Load.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	changed := false
	if f := cmd.Flags().Lookup("storage-driver"); f != nil && f.Changed {
		cfg.Storage.Driver = f.Value.String()
		changed = true
	}
	if f := cmd.Flags().Lookup("dsn"); f != nil && f.Changed {
		cfg.Storage.DSN = f.Value.String()
		changed = true
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
}
