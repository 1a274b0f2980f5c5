package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipebox/internal/app"
	"recipebox/internal/logging"
	"recipebox/internal/services"
	"recipebox/internal/store"
	"recipebox/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server until SIGINT or SIGTERM.

An unreachable store does not stop the server: list endpoints serve fallback
data and writes fail with 500. RabbitMQ is optional; without RABBITMQ_URL no
events are published.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	avail := store.Open(ctx, cfg.Store)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := avail.Close(closeCtx); err != nil {
			logging.Warn().Err(err).Msg("error closing store")
		}
	}()

	assetStore, closeAssets, err := app.OpenAssets(ctx, cfg.Assets)
	if err != nil {
		return err
	}
	defer closeAssets()

	var events services.EventPublisher
	mqClient, err := app.OpenEvents(cfg.RabbitMQURL)
	if err != nil {
		logging.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
	} else if mqClient != nil {
		defer mqClient.Close()
		events = mqClient
		if err := mqClient.ConsumeEvents(rabbitmq.LogEvent); err != nil {
			logging.Warn().Err(err).Msg("failed to start event consumer")
		}
	}

	server := app.New(app.Deps{
		Config:    cfg,
		Store:     avail,
		Assets:    assetStore,
		Events:    events,
		AccessLog: true,
	})

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.AppPort).Msg("starting server")
		errCh <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logging.Error().Err(err).Msg("error during server shutdown")
	}
	logging.Info().Msg("server gracefully stopped")
	return nil
}
