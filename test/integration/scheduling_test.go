package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/internal/server"
	"github.com/vnykmshr/prioflow/internal/testutil"
	"github.com/vnykmshr/prioflow/pkg/metrics"
	"github.com/vnykmshr/prioflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/prioflow/pkg/timing/pacer"
)

// TestSchedulerIntoPausedPool verifies that entries fired by the scheduler
// queue up in a paused pool and run by priority once it resumes.
func TestSchedulerIntoPausedPool(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()
	testutil.AssertEqual(t, pool.Pause(), true)

	sched, err := scheduler.NewWithConfig(scheduler.Config{
		WorkerPool:   pool.Submitter(),
		TickInterval: time.Millisecond,
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, sched.Start())
	defer func() { <-sched.Stop() }()

	var order testutil.OrderRecorder
	now := time.Now()
	for _, priority := range []int{1, 9, 5} {
		p := priority
		_, err := sched.Schedule(fmt.Sprintf("p%d", p), func() {
			order.Append(fmt.Sprintf("p%d", p))
		}, now, workerpool.WithPriority(p))
		testutil.AssertNoError(t, err)
	}

	testutil.Eventually(t, func() bool { return pool.PendingTaskCount() == 3 }, time.Second, time.Millisecond)
	testutil.AssertEqual(t, len(sched.List()), 0)

	testutil.AssertEqual(t, pool.Resume(), true)
	pool.WaitIdle(false)

	got := strings.Join(order.Order(), ",")
	testutil.AssertEqual(t, got, "p9,p5,p1")
}

// TestSchedulerTimeoutExpiresInStoppedPool verifies that a timeout given to
// a scheduled entry expires the task when the pool cannot run it in time.
func TestSchedulerTimeoutExpiresInStoppedPool(t *testing.T) {
	pool, err := workerpool.NewWithConfig(workerpool.Config{})
	testutil.AssertNoError(t, err)
	defer pool.Close()

	sched, err := scheduler.NewWithConfig(scheduler.Config{
		WorkerPool:   pool.Submitter(),
		TickInterval: time.Millisecond,
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, sched.Start())
	defer func() { <-sched.Stop() }()

	var ran int32
	_, err = sched.ScheduleAfter("stale", func() { atomic.AddInt32(&ran, 1) }, 0,
		workerpool.WithTimeout(5*time.Millisecond))
	testutil.AssertNoError(t, err)

	testutil.Eventually(t, func() bool { return pool.PendingTaskCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	pool.Start(1)
	pool.WaitIdle(false)

	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(0))
	testutil.AssertEqual(t, pool.Stats().Expired, int64(1))
}

// TestSharedMetricsRegistry verifies that the pool, scheduler and pacer
// report into one Prometheus registry.
func TestSharedMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool, err := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 2}, "shared",
		metrics.Config{Enabled: true, Registry: reg})
	testutil.AssertNoError(t, err)
	defer pool.Close()
	mreg := pool.MetricsRegistry()

	sched, err := scheduler.NewWithConfig(scheduler.Config{
		Name:         "shared",
		WorkerPool:   pool.Submitter(),
		TickInterval: time.Millisecond,
		Metrics:      mreg,
	})
	testutil.AssertNoError(t, err)

	producer, err := pacer.NewWithConfig(pacer.Config{FPS: 500, Name: "shared", Metrics: mreg})
	testutil.AssertNoError(t, err)

	var fired int32
	_, err = sched.ScheduleAfter("once", func() { atomic.AddInt32(&fired, 1) }, 0)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, sched.Start())

	producer.Start()
	for i := 0; i < 3; i++ {
		_, err := producer.Sleep(context.Background())
		testutil.AssertNoError(t, err)
		pool.Post(func() {})
	}

	testutil.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
	<-sched.Stop()
	pool.WaitIdle(false)

	testutil.AssertEqual(t, promtest.ToFloat64(mreg.TasksSubmitted.WithLabelValues("shared")), 4.0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.TasksScheduled.WithLabelValues("shared", "once")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.TasksDispatched.WithLabelValues("shared")), 1.0)

	paced := promtest.ToFloat64(mreg.FramesPaced.WithLabelValues("shared"))
	dropped := promtest.ToFloat64(mreg.FramesDropped.WithLabelValues("shared"))
	testutil.AssertEqual(t, paced+dropped, 3.0)
}

// TestAdminServerOverHTTP drives a pool through the admin API over a real
// HTTP connection.
func TestAdminServerOverHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool, err := workerpool.NewWithMetrics(workerpool.Config{WorkerCount: 2}, "admin",
		metrics.Config{Enabled: true, Registry: reg})
	testutil.AssertNoError(t, err)
	defer pool.Close()

	ts := httptest.NewServer(server.New(pool.Controller(), zap.NewNop(), server.WithGatherer(reg)).Handler())
	defer ts.Close()
	defer http.DefaultClient.CloseIdleConnections()

	post := func(path string) int {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		testutil.AssertNoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	testutil.AssertEqual(t, post("/pool/pause"), http.StatusOK)

	var ran int32
	for i := 0; i < 5; i++ {
		pool.Post(func() { atomic.AddInt32(&ran, 1) })
	}
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(0))

	testutil.AssertEqual(t, post("/pool/workers?count=4"), http.StatusOK)
	testutil.AssertEqual(t, post("/pool/resume"), http.StatusOK)
	pool.WaitIdle(false)
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(5))

	resp, err := http.Get(ts.URL + "/pool")
	testutil.AssertNoError(t, err)
	var env struct {
		Data workerpool.Stats `json:"data"`
	}
	testutil.AssertNoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	testutil.AssertEqual(t, env.Data.Workers, 4)
	testutil.AssertEqual(t, env.Data.Executed, int64(5))

	resp, err = http.Get(ts.URL + "/metrics")
	testutil.AssertNoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	testutil.AssertNoError(t, err)
	if !strings.Contains(string(body), `prioflow_workerpool_size{pool_name="admin"} 4`) {
		t.Errorf("metrics missing pool size gauge:\n%s", body)
	}

	testutil.AssertEqual(t, post("/pool/stop"), http.StatusOK)
	testutil.AssertEqual(t, post("/pool/resume"), http.StatusConflict)
}

// TestFuturesAcrossStop verifies that every future submitted through the
// restricted view resolves, whether its task ran or was dropped by Stop.
func TestFuturesAcrossStop(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()
	submitter := pool.Submitter()

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := workerpool.SubmitFunc(submitter, func() int {
		close(started)
		<-release
		return 1
	})
	<-started

	queued := make([]*workerpool.Future[int], 0, 3)
	for i := 0; i < 3; i++ {
		queued = append(queued, workerpool.SubmitFunc(submitter, func() int { return 2 }))
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	testutil.Eventually(t, pool.IsStopped, time.Second, time.Millisecond)
	close(release)
	testutil.WaitClosed(t, stopped, time.Second)

	v, err := blocking.Get()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 1)

	for _, f := range queued {
		_, err := f.Get()
		if !errors.Is(err, workerpool.ErrPoolStopped) {
			t.Errorf("expected ErrPoolStopped, got %v", err)
		}
	}
}
