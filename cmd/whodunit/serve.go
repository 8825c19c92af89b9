package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/aretw0/whodunit"
	api "github.com/aretw0/whodunit/pkg/adapters/http"
	"github.com/aretw0/whodunit/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP game server",
	Long: `Serves the game as a JSON API, with per-session event streams and
Prometheus metrics on /metrics. Set REDIS_ADDR to share session locks and
snapshots between replicas, and OTEL_EXPORTER_OTLP_ENDPOINT to export traces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		if cmd.Flags().Changed("host") {
			cfg.App.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.App.Port, _ = cmd.Flags().GetInt("port")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(tctx); err != nil {
				logger.Warn("tracing shutdown failed", "err", err)
			}
		}()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(registry)
		streams := api.NewStreamManager(logger)

		a, err := newApp(ctx, cfg, logger, appOptions{
			offline: offline,
			extra: []whodunit.Option{
				whodunit.WithLifecycleHooks(metrics.Hooks()),
				whodunit.WithLifecycleHooks(streams.Hooks()),
				whodunit.WithTracerProvider(otel.GetTracerProvider()),
			},
		})
		if err != nil {
			return err
		}
		defer a.close()

		handler := api.NewHandler(a.engine,
			api.WithCast(a.cast),
			api.WithRoster(a.pool),
			api.WithSanitizer(cfg.Sanitizer()),
			api.WithStreams(streams),
			api.WithMetrics(observability.Handler(registry)),
			api.WithVersion(whodunit.Version),
			api.WithLogger(logger),
		)
		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("whodunit server listening", "addr", srv.Addr, "port", strconv.Itoa(cfg.App.Port))
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("whodunit server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("offline", false, "Serve the built-in mystery without a model")
	serveCmd.Flags().String("host", "", "Host to bind (default from APP_HOST)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from APP_PORT)")
}
