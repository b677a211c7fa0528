package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonathan/story-master/internal/db"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port        int
		databaseURL string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the story API server",
		Long:  `Start an HTTP server that stores stories and learner progress and exposes them as REST endpoints under /api.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != 0 {
				a.cfg.Port = port
			}
			if databaseURL != "" {
				a.cfg.DatabaseURL = databaseURL
			}

			logger, err := a.logger(logging.FormatJSON, a.cfg.LogFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cat, err := a.catalog()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Config{
				Port:        a.cfg.Port,
				Store:       store,
				Catalog:     cat,
				CORSOrigins: a.cfg.CORSOrigins,
				Logger:      logger,
			})
			if err != nil {
				store.Close()
				return fmt.Errorf("failed to create server: %w", err)
			}
			logger.Info("story store ready", zap.String("database", redact(a.cfg.DatabaseURL)))
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 8080)")
	cmd.Flags().StringVar(&databaseURL, "db-url", "", "Database URL (postgres://... or sqlite://path)")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL != "" {
				a.cfg.DatabaseURL = databaseURL
			}
			store, err := openStore(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", redact(a.cfg.DatabaseURL))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "db-url", "", "Database URL (postgres://... or sqlite://path)")
	return cmd
}

// openStore connects and migrates.
func openStore(ctx context.Context, databaseURL string) (db.Store, error) {
	store, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// redact hides the password of a database URL for logging.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
