package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/cli"
	httpAdapter "github.com/aretw0/ingest/pkg/adapters/http"
	"github.com/aretw0/ingest/pkg/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the wizard as a JSON API over HTTP, with state change events over SSE,
the OpenAPI document at /openapi.yaml and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		streams := httpAdapter.NewStreamManager(logger)
		stack, err := cli.Build(cfg, logger, ingest.WithChangeListener(streams.OnChange))
		if err != nil {
			return err
		}
		defer stack.Close()

		addr := cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		handler := httpAdapter.NewHandler(stack.Wizard,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(stack.Metrics.Handler()),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithDefaults(domain.Configuration{Models: cfg.Wizard.Models}),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx, stop := cli.WithSignals(context.Background())
		defer stop()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("ingest server listening", "address", addr, "store", cfg.Store.Kind, "objects", cfg.Objects.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("shutting down", "signal", fmt.Sprint(cli.InterruptSignal(sigCtx)))

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("ingest server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from configuration, :8080)")
}
