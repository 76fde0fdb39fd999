package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlueOwlOpenSource/httpaction"
	"github.com/BlueOwlOpenSource/httpaction/mapping"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		logger, err := httpaction.NewLogger(cfg.Server.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		handler, factory, err := newHandler(cfg, logger, reg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server",
				zap.String("addr", srv.Addr),
				zap.Int("actions", len(factory.ActionPaths())))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-shutdown:
			logger.Info("shutting down", zap.Stringer("signal", sig))
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", zap.Duration("timeout", shutdownTimeout), zap.Error(err))
				return srv.Close()
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

// newHandler builds the factory and the router serving it.
func newHandler(cfg fileConfig, logger *zap.Logger, reg *prometheus.Registry) (http.Handler, *httpaction.HTTPActionFactory, error) {
	factory, err := newFactory(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	sc := httpaction.NewServerContext(cfg.Server.Name, cfg.Server.InitParams)
	sc.SetAttribute("startedAt", time.Now())

	d := httpaction.NewDispatcher(factory, sc,
		httpaction.WithMetrics(httpaction.NewMetrics(reg)),
		httpaction.WithExtension(cfg.Server.Extension))

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	d.Mount(router)
	return router, factory, nil
}

func newFactory(cfg fileConfig, logger *zap.Logger) (*httpaction.HTTPActionFactory, error) {
	factory, err := httpaction.NewHTTPActionFactory(cfg.Factory.Properties(),
		httpaction.WithLogger(logger),
		httpaction.WithActionFilter(mapping.Filter{}))
	if err != nil {
		return nil, err
	}
	register(factory)
	return factory, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().Bool("case-insensitive", false, "Lowercase action paths")
}
