package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"health-inventory/internal/adapters/agegroups/remote"
	"health-inventory/internal/adapters/auth/iam"
	"health-inventory/internal/adapters/storage/sqlstore"
	"health-inventory/internal/platform/config"
	"health-inventory/internal/platform/logger"
	"health-inventory/internal/platform/metrics"
	"health-inventory/internal/router"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func getServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("port", 0, "puerto HTTP")
	serveCmd.Flags().Bool("migrate", false, "aplica migraciones antes de arrancar")
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := router.Options{Logger: log}

	if cfg.Storage.Driver != "memory" {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		migrate, _ := cmd.Flags().GetBool("migrate")
		if cfg.Storage.AutoMigrate || migrate {
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			version, _ := store.MigrationVersion(ctx)
			log.Info("migrations applied", map[string]any{"version": version})
		}
		opts.Store = store
	}

	if cfg.Auth.IAMBaseURL != "" {
		client, err := iam.NewClient(iam.Config{
			BaseURL: cfg.Auth.IAMBaseURL,
			APIKey:  cfg.Auth.APIKey,
			Timeout: cfg.Auth.Timeout,
		})
		if err != nil {
			return fmt.Errorf("iam client: %w", err)
		}
		opts.AuthVerifier = iam.NewVerifier(client)
	} else {
		log.Warn("auth disabled, using X-Debug-User-ID", nil)
	}

	if cfg.AgeGroups.DirectoryURL != "" {
		client, err := remote.NewClient(remote.Config{
			BaseURL:  cfg.AgeGroups.DirectoryURL,
			APIKey:   cfg.AgeGroups.APIKey,
			Timeout:  cfg.AgeGroups.Timeout,
			CacheTTL: cfg.AgeGroups.CacheTTL,
		})
		if err != nil {
			return fmt.Errorf("age group directory: %w", err)
		}
		opts.AgeGroups = client
	}

	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.New()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return serve(ctx, srv, log, cfg)
}

func serve(ctx context.Context, srv *http.Server, log logger.Logger, cfg *config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	return sqlstore.Open(ctx, dialect, cfg.Storage.DSN)
}
