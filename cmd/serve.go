package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/huangsam/runlens/internal/api"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/hub"
	"github.com/huangsam/runlens/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the HTTP API with the push hub and metrics endpoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API, websocket push updates and Prometheus metrics",
	Long: `Start the HTTP server.

Endpoints:
- GET /api/dashboard[/{metric}]?businessUnit=X
- GET /api/analytics[/{metric}]
- GET, POST /api/config (reconfiguring flushes the cache)
- GET, DELETE /api/cache
- GET /healthz and /metrics
- /ws for ReceiveMetricsUpdate, ReceiveTrendsUpdate and DataRefreshed events

Examples:
  runlens serve --listen :9090 --catalog-backend sqlserver --catalog-db-connect "sqlserver://host?database=SSISDB"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runServe(); err != nil {
			contract.LogFatal("Server failed", err)
		}
	},
}

func runServe() error {
	ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return err
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	push := hub.New(logger.Named("hub"))
	go push.Run(ctx)

	a := newAggregator(store, push)
	handler := api.New(a, store,
		api.WithPush(push),
		api.WithGatherer(reg),
		api.WithLogger(logger.Named("api")),
	)
	srv := api.NewServer(cfg.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Listen), zap.Bool("configured", store.Configured()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
