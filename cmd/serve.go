package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"faleproxy/internal/api"
	"faleproxy/internal/api/handler/v1handler"
	"faleproxy/internal/config"
	"faleproxy/pkg/logger"
	"faleproxy/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) (func(ctx context.Context), error) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not create webserver: %w", err)
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}, nil
}

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the proxy web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			otel.SetMeterProvider(mp)
			defer func() {
				if err := mp.Shutdown(context.Background()); err != nil {
					logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
				}
			}()

			p, err := newProxy(ctx, a.cfg, mp)
			if err != nil {
				return err
			}

			stopWebserver, err := setupServer(ctx, a.cfg, api.Deps{
				Deps: v1handler.Deps{Proxy: p},
			})
			if err != nil {
				return err
			}

			// wait for interrupt
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
			defer cancel()
			stopWebserver(shutdownCtx)

			return nil
		},
	}

	return cmd
}
