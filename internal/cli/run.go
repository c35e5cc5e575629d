package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/internal/config"
	"github.com/vnykmshr/prioflow/pkg/common/validation"
	"github.com/vnykmshr/prioflow/pkg/metrics"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/prioflow/pkg/timing/pacer"
	"github.com/vnykmshr/prioflow/pkg/timing/stopwatch"
)

type runOptions struct {
	tasks      int
	workers    int
	priorities int
	work       time.Duration
	timeout    time.Duration
	rate       float64
	panicEvery int
}

type runSummary struct {
	Submitted    int64
	Executed     int64
	Expired      int64
	Panicked     int64
	Abandoned    int64
	Elapsed      time.Duration
	Throughput   float64
	MeanInterval time.Duration
	Dropped      int64
	Interrupted  bool
	ByPriority   map[int]int64
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a synthetic workload through a worker pool",
		Long: `Submits --tasks tasks with random priorities in [0, --priorities) and
waits until the pool is idle, then prints a summary.

--rate paces submission to that many tasks per second. --timeout gives every
task an expiration so tasks stuck in the queue are discarded instead of run.
--panic-every makes every Nth task panic to exercise failure isolation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				opts.workers = cfg.Pool.Workers
			}
			summary, err := runWorkload(cmd.Context(), cfg.Pool, opts, logger)
			if err != nil {
				return err
			}
			summary.print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.tasks, "tasks", "n", 1000, "Number of tasks to submit")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 4, "Worker count (default from config)")
	cmd.Flags().IntVar(&opts.priorities, "priorities", 4, "Number of distinct priorities")
	cmd.Flags().DurationVar(&opts.work, "work", time.Millisecond, "Time each task spends working")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Task expiration measured from submission (0 = never)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Submission rate in tasks per second (0 = as fast as possible)")
	cmd.Flags().IntVar(&opts.panicEvery, "panic-every", 0, "Make every Nth task panic (0 = never)")

	return cmd
}

func (o runOptions) validate(pc config.PoolConfig) error {
	if err := validation.ValidatePositive("run", "tasks", o.tasks); err != nil {
		return err
	}
	if err := validation.ValidatePositive("run", "workers", o.workers); err != nil {
		return err
	}
	if err := validation.ValidatePositive("run", "priorities", o.priorities); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("run", "panic-every", o.panicEvery); err != nil {
		return err
	}
	if o.panicEvery > 0 && !pc.FailureIsolation {
		return errors.New("--panic-every requires pool.failure_isolation")
	}
	return nil
}

func runWorkload(ctx context.Context, pc config.PoolConfig, opts runOptions, logger *zap.Logger) (runSummary, error) {
	if err := opts.validate(pc); err != nil {
		return runSummary{}, err
	}

	meter := pacer.NewMeter(nil)
	completions := stopwatch.New()

	var mu sync.Mutex
	byPriority := make(map[int]int64)

	poolCfg := pc.WorkerPool(logger)
	poolCfg.WorkerCount = opts.workers
	poolCfg.OnTaskComplete = func(r workerpool.Result) {
		if r.Err != nil {
			return
		}
		meter.Tick()
		completions.Record()
		mu.Lock()
		byPriority[r.Task.Priority]++
		mu.Unlock()
	}

	pool, err := workerpool.NewWithMetrics(poolCfg, pc.Name, metrics.Config{
		Enabled:  pc.Metrics,
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		return runSummary{}, err
	}
	defer pool.Close()

	var pace *pacer.Pacer
	if opts.rate > 0 {
		if pace, err = pacer.New(opts.rate); err != nil {
			return runSummary{}, err
		}
	}

	logger.Info("workload starting",
		zap.Int("tasks", opts.tasks),
		zap.Int("workers", opts.workers),
		zap.Int("priorities", opts.priorities),
		zap.Float64("rate", opts.rate),
	)

	var summary runSummary
	meter.Start()
	if pace != nil {
		pace.Start()
	}

	for i := 1; i <= opts.tasks; i++ {
		if pace != nil {
			onTime, err := pace.Sleep(ctx)
			if err != nil {
				summary.Interrupted = true
				break
			}
			if !onTime {
				summary.Dropped++
			}
		} else if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		taskOpts := []workerpool.TaskOption{workerpool.WithPriority(rand.Intn(opts.priorities))}
		if opts.timeout > 0 {
			taskOpts = append(taskOpts, workerpool.WithTimeout(opts.timeout))
		}

		n := i
		pool.Post(func() {
			if opts.panicEvery > 0 && n%opts.panicEvery == 0 {
				panic(fmt.Sprintf("synthetic failure in task %d", n))
			}
			if opts.work > 0 {
				time.Sleep(opts.work)
			}
		}, taskOpts...)
	}

	if err := pool.WaitIdleContext(ctx, false); err != nil {
		summary.Interrupted = true
		logger.Warn("workload interrupted", zap.Error(err), zap.Int("pending", pool.PendingTaskCount()))
	}
	meter.Stop()
	pool.Stop()

	stats := pool.Stats()
	summary.Submitted = stats.Submitted
	summary.Executed = stats.Executed
	summary.Expired = stats.Expired
	summary.Panicked = stats.Panicked
	summary.Abandoned = stats.Abandoned
	summary.Elapsed = meter.Stopped().Sub(meter.Started())
	summary.Throughput = meter.Rate()
	summary.MeanInterval = completions.Average()

	mu.Lock()
	summary.ByPriority = byPriority
	mu.Unlock()

	logger.Info("workload finished",
		zap.Int64("executed", summary.Executed),
		zap.Int64("expired", summary.Expired),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (s runSummary) print(w io.Writer) {
	fmt.Fprintf(w, "tasks       %s submitted, %s executed, %s expired, %s panicked, %s abandoned\n",
		humanize.Comma(s.Submitted), humanize.Comma(s.Executed), humanize.Comma(s.Expired),
		humanize.Comma(s.Panicked), humanize.Comma(s.Abandoned))
	fmt.Fprintf(w, "elapsed     %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "throughput  %s tasks/s\n", humanize.CommafWithDigits(s.Throughput, 1))
	if s.MeanInterval > 0 {
		fmt.Fprintf(w, "interval    %s between completions\n", s.MeanInterval)
	}
	if s.Dropped > 0 {
		fmt.Fprintf(w, "pacer       %s frames behind schedule\n", humanize.Comma(s.Dropped))
	}

	priorities := make([]int, 0, len(s.ByPriority))
	for p := range s.ByPriority {
		priorities = append(priorities, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))
	for _, p := range priorities {
		fmt.Fprintf(w, "priority %-3d%s\n", p, humanize.Comma(s.ByPriority[p]))
	}
	if s.Interrupted {
		fmt.Fprintln(w, "interrupted before the pool went idle")
	}
}
