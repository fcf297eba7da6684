package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alexjoedt/imagestore"
	"github.com/alexjoedt/imagestore/internal/config"
	"github.com/alexjoedt/imagestore/internal/metrics"
	"github.com/alexjoedt/imagestore/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP image service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var metricsHandler http.Handler
			opts := []imagestore.OptionFunc{}
			if a.cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				observer, err := metrics.NewPrometheusObserver("", reg)
				if err != nil {
					return fmt.Errorf("failed to register metrics: %w", err)
				}
				opts = append(opts, imagestore.WithObserver(observer))
				metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
			}

			store, err := newStore(a.cfg.Storage, a.logger, opts...)
			if err != nil {
				return err
			}

			srv, err := server.New(store, server.Config{
				Addr:           a.cfg.Server.Addr,
				MaxBodyBytes:   a.cfg.Server.MaxBodyBytes,
				ReadTimeout:    a.cfg.Server.ReadTimeout,
				WriteTimeout:   a.cfg.Server.WriteTimeout,
				Gzip:           a.cfg.Server.Gzip,
				AllowOrigins:   a.cfg.Server.CORS.AllowOrigins,
				Debug:          a.logger.Enabled(ctx, slog.LevelDebug),
				MetricsPath:    a.cfg.Metrics.Path,
				MetricsHandler: metricsHandler,
			}, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			a.logger.Info("starting image store",
				"addr", a.cfg.Server.Addr,
				"root", store.Root(),
				"metrics", a.cfg.Metrics.Enabled)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default \"127.0.0.1:3000\")")
	if err := a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
		panic(fmt.Errorf("failed to bind flag %q: %w", "addr", err))
	}
	return cmd
}

// newStore builds a Store from the storage section of the config.
func newStore(cfg config.StorageConfig, logger *slog.Logger, extra ...imagestore.OptionFunc) (*imagestore.Store, error) {
	dirMode, fileMode, err := cfg.Modes()
	if err != nil {
		return nil, err
	}

	opts := []imagestore.OptionFunc{
		imagestore.WithDirMode(dirMode),
		imagestore.WithFileMode(fileMode),
		imagestore.WithCatalogWorkers(cfg.CatalogWorkers),
		imagestore.WithLogger(logger),
	}
	if cfg.UniqueNames {
		opts = append(opts, imagestore.WithNameFunc(imagestore.UniqueFileName))
	}
	opts = append(opts, extra...)

	store, err := imagestore.New(cfg.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}
