package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/coachpo/taskbus/errs"
	"github.com/coachpo/taskbus/internal/telemetry"
)

func newTestPool(t *testing.T, workers int, opts ...Option) *Pool {
	t.Helper()
	pool := NewPool(append([]Option{WithWorkers(workers)}, opts...)...)
	t.Cleanup(pool.Close)
	return pool
}

func TestPoolRunsEveryTaskExactlyOnce(t *testing.T) {
	pool := newTestPool(t, 4)

	var count atomic.Int32
	futures := make([]*Future[struct{}], 0, 100)
	for i := 0; i < 100; i++ {
		f, err := pool.Go(func(context.Context) error {
			count.Add(1)
			return nil
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}

	_, err := WaitAll(futures...)
	require.NoError(t, err)
	require.Equal(t, int32(100), count.Load())

	stats := pool.Stats()
	require.Equal(t, uint64(100), stats.Submitted)
	require.Equal(t, uint64(100), stats.Completed)
	require.Zero(t, stats.Failed)
	require.Equal(t, 4, stats.Workers)
}

func TestPoolConcurrentSubmitters(t *testing.T) {
	pool := newTestPool(t, 3)

	const producers, perProducer = 8, 50
	var (
		executed atomic.Int64
		mu       sync.Mutex
		futures  []*Future[int]
		wg       sync.WaitGroup
	)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				f, err := SubmitWith(pool, i, func(_ context.Context, n int) (int, error) {
					executed.Add(1)
					return n * 2, nil
				})
				require.NoError(t, err)
				mu.Lock()
				futures = append(futures, f)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	values, err := WaitAll(futures...)
	require.NoError(t, err)
	require.Len(t, values, producers*perProducer)
	require.Equal(t, int64(producers*perProducer), executed.Load())
}

func TestPoolSingleWorkerPreservesFIFO(t *testing.T) {
	pool := newTestPool(t, 1)

	var (
		mu    sync.Mutex
		order []int
	)
	futures := make([]*Future[struct{}], 0, 50)
	for i := 0; i < 50; i++ {
		n := i
		f, err := pool.Go(func(context.Context) error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	_, err := WaitAll(futures...)
	require.NoError(t, err)

	for i, n := range order {
		require.Equal(t, i, n)
	}
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	pool := NewPool(WithWorkers(1))

	gate := make(chan struct{})
	var ran atomic.Int32
	_, err := pool.Go(func(context.Context) error {
		<-gate
		ran.Add(1)
		return nil
	})
	require.NoError(t, err)

	const queued = 10
	for i := 0; i < queued; i++ {
		_, err := pool.Go(func(context.Context) error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- pool.Shutdown(context.Background()) }()
	require.Eventually(t, pool.Closed, time.Second, time.Millisecond)

	_, err = pool.Go(func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)

	close(gate)
	require.NoError(t, <-shutdownErr)
	require.Equal(t, int32(queued+1), ran.Load())
	require.Zero(t, pool.Stats().Queued)
}

func TestSubmitAfterShutdownFailsImmediately(t *testing.T) {
	pool := NewPool(WithWorkers(2), WithName("closed"))
	pool.Close()

	start := time.Now()
	f, err := Submit(pool, func(context.Context) (int, error) { return 1, nil })
	require.Nil(t, f)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, errs.CodeUnavailable, code)
	require.Contains(t, err.Error(), "pool=\"closed\"")
	require.Zero(t, pool.Stats().Submitted)
}

func TestSubmitRejectsNilTask(t *testing.T) {
	pool := newTestPool(t, 1)

	_, err := Submit[int](pool, nil)
	code, _ := errs.CodeOf(err)
	require.Equal(t, errs.CodeInvalid, code)

	_, err = pool.Go(nil)
	require.Error(t, err)

	_, err = SubmitValue[int](pool, nil)
	require.Error(t, err)
}

func TestTaskErrorSurfacesThroughFuture(t *testing.T) {
	pool := newTestPool(t, 2)
	boom := errors.New("boom")

	f, err := Submit(pool, func(context.Context) (int, error) { return 7, boom })
	require.NoError(t, err)

	v, err := f.Await()
	require.ErrorIs(t, err, boom)
	require.Equal(t, 7, v)
	require.Equal(t, uint64(1), pool.Stats().Failed)
}

func TestTaskPanicIsCapturedAndWorkerSurvives(t *testing.T) {
	pool := newTestPool(t, 1)

	bad, err := Submit(pool, func(context.Context) (string, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	good, err := SubmitValue(pool, func() string { return "still alive" })
	require.NoError(t, err)

	v, err := bad.Await()
	require.Empty(t, v)
	require.ErrorIs(t, err, ErrTaskPanicked)
	require.Contains(t, err.Error(), "kaboom")

	v, err = good.Await()
	require.NoError(t, err)
	require.Equal(t, "still alive", v)
}

func TestShutdownContextExpiresWhileTaskRuns(t *testing.T) {
	pool := NewPool(WithWorkers(1))
	gate := make(chan struct{})
	_, err := pool.Go(func(context.Context) error {
		<-gate
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = pool.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestShutdownIsIdempotent(t *testing.T) {
	pool := NewPool(WithWorkers(2))
	require.NoError(t, pool.Shutdown(context.Background()))
	require.NoError(t, pool.Shutdown(context.Background()))
	pool.Close()
	require.True(t, pool.Stats().Closed)
}

type ctxKey struct{}

func TestTasksReceivePoolContext(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "frame-loop")
	pool := newTestPool(t, 1, WithContext(base))

	f, err := Submit(pool, func(ctx context.Context) (string, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})
	require.NoError(t, err)
	v, err := f.Await()
	require.NoError(t, err)
	require.Equal(t, "frame-loop", v)
}

func TestDefaultWorkersReservesCallerCore(t *testing.T) {
	require.GreaterOrEqual(t, DefaultWorkers(), 1)

	pool := NewPool(WithWorkers(0))
	defer pool.Close()
	require.Equal(t, DefaultWorkers(), pool.Workers())
	require.Equal(t, DefaultPoolName, pool.Name())
}

func TestPoolRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	pool := NewPool(WithWorkers(2), WithName("metered"), WithMeter(provider.Meter("test")))
	for i := 0; i < 3; i++ {
		_, err := pool.Go(func(context.Context) error { return nil })
		require.NoError(t, err)
	}
	_, err := pool.Go(func(context.Context) error { return errors.New("fail") })
	require.NoError(t, err)
	pool.Close()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	require.Equal(t, int64(4), sumInt64(t, rm, telemetry.MetricTasksSubmitted))
	require.Equal(t, int64(4), sumInt64(t, rm, telemetry.MetricTasksCompleted))
	require.Equal(t, int64(1), sumInt64(t, rm, telemetry.MetricTasksFailed))
	require.Equal(t, int64(0), sumInt64(t, rm, telemetry.MetricQueueDepth))
}

func sumInt64(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return 0
}

func TestStatsNeverReportMoreCompletedThanSubmitted(t *testing.T) {
	pool := newTestPool(t, 4)

	var (
		stop      atomic.Bool
		violation atomic.Bool
		sampler   sync.WaitGroup
	)
	sampler.Add(1)
	go func() {
		defer sampler.Done()
		for !stop.Load() {
			s := pool.Stats()
			if s.Completed > s.Submitted {
				violation.Store(true)
			}
		}
	}()

	futures := make([]*Future[struct{}], 0, 500)
	for i := 0; i < 500; i++ {
		f, err := pool.Go(func(context.Context) error { return nil })
		require.NoError(t, err)
		futures = append(futures, f)
	}
	_, err := WaitAll(futures...)
	require.NoError(t, err)
	stop.Store(true)
	sampler.Wait()

	require.False(t, violation.Load(), "completed overtook submitted")
	stats := pool.Stats()
	require.Equal(t, uint64(500), stats.Submitted)
	require.Equal(t, uint64(500), stats.Completed)
}

func TestRejectedSubmitLeavesCountersBalanced(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	pool := NewPool(WithWorkers(1), WithName("rejecting"), WithMeter(provider.Meter("test")))
	pool.Close()

	_, err := pool.Go(func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Zero(t, pool.Stats().Submitted)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Equal(t, int64(1), sumInt64(t, rm, telemetry.MetricTasksSubmitted))
	require.Equal(t, int64(0), sumInt64(t, rm, telemetry.MetricQueueDepth))
}
