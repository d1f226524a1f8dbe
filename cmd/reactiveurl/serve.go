package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactiveurl/internal/config"
	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the URL sync server",
		Long: `Run the URL sync server.

Configuration is read from --config, or from reactiveurl.json /
reactiveurl.toml in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			srv, err := server.New(serverConfig(cfg, logger))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to reactiveurl.json or reactiveurl.toml")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every change")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

func serverConfig(cfg *config.Config, logger *slog.Logger) server.Config {
	return server.Config{
		Address:          cfg.Server.Address,
		Page:             cfg.Page,
		Query:            cfg.Query,
		Defaults:         query.RawQuery(cfg.Defaults),
		FilterKeys:       cfg.FilterKeys,
		Debounce:         cfg.DebounceInterval(),
		ExceptPaginator:  cfg.ExceptPaginator,
		Metrics:          cfg.Metrics.Enabled,
		MetricsNamespace: cfg.Metrics.Namespace,
		TracerName:       cfg.Tracing.TracerName,
		Logger:           logger,
	}
}
