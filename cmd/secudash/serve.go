package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anyx-app/secudash-43b2ee93/internal/database"
	"github.com/anyx-app/secudash-43b2ee93/internal/executor"
	"github.com/anyx-app/secudash-43b2ee93/internal/server"
	"github.com/anyx-app/secudash-43b2ee93/pkg/config"
	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query backend",
	Long:  "Run the query backend. Settings come from SECUDASH_* variables or a .env file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

		db, err := database.Open(database.Config{
			Driver:  cfg.DB.Driver,
			DSN:     cfg.DB.DSN,
			Migrate: cfg.DB.Migrate,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		exec := executor.New(db.DB, db.Driver,
			executor.WithTimeout(cfg.Query.Timeout),
			executor.WithMaxRows(cfg.Query.MaxRows),
		)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("store ready", "driver", cfg.DB.Driver, "migrate", cfg.DB.Migrate)
		return server.New(cfg, exec).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides SECUDASH_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
