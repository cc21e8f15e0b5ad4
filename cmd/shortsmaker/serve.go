package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ombresaco/shortsmaker/internal/api"
	"github.com/ombresaco/shortsmaker/internal/config"
)

const version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		server := api.NewServer(api.ServerConfig{
			Port:      cfg.Server.Port,
			Logger:    log.Logger,
			Queue:     a.queue,
			Segments:  a.orchestrator,
			Batch:     a.processor,
			Store:     a.store,
			Cache:     a.cache,
			Auth:      a.uploader,
			StartTime: time.Now(),
			Version:   version,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}
