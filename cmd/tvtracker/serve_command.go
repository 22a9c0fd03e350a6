package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tvtracker/tvtracker/internal/api"
	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the weekly alert scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log := ctx.newLogger(cfg, true)
			defer log.Close()

			log.Info().
				Str("version", config.Version).
				Str("logLevel", cfg.Logging.Level).
				Msg("starting TVTracker")

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := websocket.NewHub(log.Logger)
			go hub.Run(runCtx)

			server, err := api.NewServer(db.Conn(), hub, cfg, log.Logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			if err := server.StartScheduler(runCtx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.Server.Address())
			}()

			select {
			case <-runCtx.Done():
				log.Info().Msg("received shutdown signal")
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					shutdownServer(server, log.Logger)
					return fmt.Errorf("http server: %w", err)
				}
			}

			shutdownServer(server, log.Logger)
			log.Info().Msg("server stopped")
			return nil
		},
	}
}

func shutdownServer(server *api.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
