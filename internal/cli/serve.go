package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/internal/config"
	"github.com/vnykmshr/prioflow/internal/server"
	"github.com/vnykmshr/prioflow/pkg/metrics"
	"github.com/vnykmshr/prioflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
)

// heartbeatPriority puts the heartbeat ahead of ordinary work.
const heartbeatPriority = 100

func newServeCmd() *cobra.Command {
	var addr string
	var heartbeat time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a worker pool and scheduler behind the admin API",
		Long: `Starts a worker pool and a scheduler feeding it, and serves the admin API:

  GET  /healthz              liveness and pool state
  GET  /metrics              Prometheus metrics
  GET  /pool                 pool statistics
  POST /pool/start?count=N   start a stopped pool
  POST /pool/stop            stop the pool (?wait=false to not wait)
  POST /pool/pause           pause the pool (?wait=false to not wait)
  POST /pool/resume          resume a paused pool
  POST /pool/workers?count=N change the worker count
  GET  /schedules            scheduled entries
  DELETE /schedules/{id}     cancel an entry`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, heartbeat, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (default from config)")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 30*time.Second, "Interval of the pool heartbeat log (0 = off)")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, heartbeat time.Duration, logger *zap.Logger) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pool, err := workerpool.NewWithMetrics(cfg.Pool.WorkerPool(logger), cfg.Pool.Name, metrics.Config{
		Enabled:  cfg.Pool.Metrics,
		Registry: promReg,
	})
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	sched, err := scheduler.NewWithConfig(scheduler.Config{
		Name:         cfg.Scheduler.Name,
		WorkerPool:   pool.Submitter(),
		Location:     cfg.Scheduler.LoadLocation(),
		TickInterval: cfg.Scheduler.TickInterval,
		MaxTasks:     cfg.Scheduler.MaxTasks,
		Logger:       logger,
		Metrics:      pool.MetricsRegistry(),
	})
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	if heartbeat > 0 {
		_, err := sched.ScheduleRepeating("heartbeat", func() {
			stats := pool.Stats()
			logger.Info("heartbeat",
				zap.Int("workers", stats.Workers),
				zap.Int("running", stats.Running),
				zap.Int("pending", stats.Pending),
				zap.Int64("executed", stats.Executed),
				zap.Bool("paused", stats.Paused),
			)
		}, heartbeat, workerpool.WithPriority(heartbeatPriority), workerpool.WithTimeout(heartbeat))
		if err != nil {
			return fmt.Errorf("schedule heartbeat: %w", err)
		}
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := server.New(pool.Controller(), logger,
		server.WithScheduler(sched),
		server.WithGatherer(promReg),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		<-sched.Stop()
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("shutting down")

	// Stop the scheduler before the HTTP server.
	<-sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := pool.WaitIdleContext(shutdownCtx, false); err != nil {
		logger.Warn("pool did not drain", zap.Int("pending", pool.PendingTaskCount()))
	}
	<-errCh

	logger.Info("server stopped")
	return nil
}
