package main

import (
	"fmt"

	"github.com/BookHive-Network/notifier/internal/application"
	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the notification server",
		Long:  "Start the WebSocket server, the bus ingress and the metrics listener, and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer logger.Shutdown()

			logger.Info("Starting BookHive notifier...",
				zap.String("version", config.Version),
				zap.String("environment", cfg.General.Environment),
				zap.String("config_file", cfgFile))

			app, err := application.New(ctx, cfg)
			if err != nil {
				logger.Error("Failed to initialize the notifier", zap.Error(err))
				return fmt.Errorf("initialize: %w", err)
			}
			if err := app.Start(ctx); err != nil {
				app.Shutdown()
				return fmt.Errorf("start: %w", err)
			}
			logger.Info("BookHive notifier started successfully")

			var runErr error
			select {
			case <-ctx.Done():
				logger.Info("Shutdown signal received, initiating graceful shutdown...")
			case runErr = <-app.Errors():
				logger.Error("Notifier failed, shutting down", zap.Error(runErr))
			}
			app.Shutdown()
			return runErr
		},
	}
}
