package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huangsam/tally/core/compute"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/observability"
	"github.com/huangsam/tally/internal/store"
	"github.com/spf13/cobra"
)

// workerCmd runs the report worker loop.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued analysis reports",
	Long: `Run a worker that books queued reports and processes them one at a time.

For each report the worker:
- Loads the measures of the payload
- Tracks issues against the previous analysis and computes technical debt
- Aggregates measures up the component tree
- Persists measures, issues and line hashes

Several workers may share one store. A report held by a worker for longer
than --stale-after is booked again by another worker.

Examples:
  # Run until interrupted
  tally worker

  # Process at most 10 reports and expose Prometheus metrics
  tally worker --max-reports 10 --metrics-addr :9090

  # Use a shared PostgreSQL store
  TALLY_STORE_DB_CONNECT="host=db dbname=tally" tally worker --store-backend postgresql`,
	PreRunE: withStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		observer := observability.NewMetrics()

		if cfg.MetricsAddr != "" {
			srv := serveMetrics(cfg.MetricsAddr, observer)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		w := compute.NewWorker(cfg, store.Manager.GetStore(), logger, observer)
		return w.Run(ctx)
	},
}

// serveMetrics exposes the worker metrics in the background.
func serveMetrics(addr string, observer *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observer.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			contract.LogWarn("Metrics server stopped", err)
		}
	}()
	return srv
}
