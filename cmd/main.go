// Package main provides the CLI entrypoint for Faleproxy.
// It wires subcommands (serve, fetch, replace, jwt), loads configuration, and initializes logging.
package main

import (
	"context"
	"fmt"
	"os"

	"faleproxy/internal/config"
	"faleproxy/internal/proxy"
	"faleproxy/pkg/fetcher/restyfetcher"
	"faleproxy/pkg/logger"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// app carries state shared by all subcommands. cfg is filled in by the root
// command before any subcommand runs.
type app struct {
	configPath string
	cfg        *config.Config
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	a.cfg = cfg

	logger.Setup(cfg.Environment)

	return nil
}

// newProxy builds the page proxy from configuration. A nil meter provider
// selects the global one.
func newProxy(ctx context.Context, cfg *config.Config, mp metric.MeterProvider) (proxy.Proxy, error) {
	f := restyfetcher.New(restyfetcher.Options{
		Timeout:      cfg.Fetcher.Timeout,
		UserAgent:    cfg.Fetcher.UserAgent,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		Logger:       logger.Sugar(ctx).Named("resty"),
	})

	opts, err := proxy.NewOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.MeterProvider = mp

	p, err := proxy.New(f, opts)
	if err != nil {
		return nil, fmt.Errorf("could not create proxy: %w", err)
	}

	return p, nil
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "faleproxy",
		Short:             "Serves web pages with Yale replaced by Fale",
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yml", "Config File Path")

	rootCmd.AddCommand(
		serveCommand(a),
		fetchCommand(a),
		replaceCommand(a),
		JWTCommand(a),
	)

	return rootCmd
}

// main builds the root Cobra command and executes the CLI.
func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	err := newRootCommand().ExecuteContext(ctx)
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
