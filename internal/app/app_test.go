package app

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/taskbus/config"
	"github.com/coachpo/taskbus/errs"
	"github.com/coachpo/taskbus/internal/app/scan"
	"github.com/coachpo/taskbus/lib/async"
)

func testSettings(opts ...config.Option) config.Settings {
	base := config.Apply(config.Default(),
		config.WithWorkers(3),
		config.WithFrames(40),
		config.WithFrameInterval(time.Millisecond),
		config.WithHeavyJobDelay(2*time.Millisecond),
		config.WithProbes(4),
	)
	base.Demo.ProbeRate = 1000
	base.Demo.ProbeBurst = 4
	return config.Apply(base, opts...)
}

func fastScan() scan.Config {
	return scan.Config{
		MinLatency:    time.Millisecond,
		MaxLatency:    2 * time.Millisecond,
		SensorRetries: 2,
		RetryInterval: time.Millisecond,
	}
}

func newRuntime(t *testing.T, cfg config.Settings) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), cfg, WithScanConfig(fastScan()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	return rt
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	cfg := config.Apply(config.Default(), config.WithEnvironment("moon"))
	_, err := New(context.Background(), cfg)
	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, errs.CodeInvalid, code)
}

func TestRunCompletesFramesAndWorkloads(t *testing.T) {
	rt := newRuntime(t, testSettings())
	require.Equal(t, 3, rt.Pool.Workers())
	require.False(t, rt.Telemetry.Enabled())

	report, err := rt.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 40, report.Frames)
	require.Equal(t, int64(40), report.FrameUpdates)
	require.False(t, report.Closed)

	require.False(t, report.HeavyJob.Running)
	require.Equal(t, HeavyJobAnswer, report.HeavyJob.Result)
	require.Empty(t, report.HeavyJob.Error)

	require.Equal(t, 4, report.ProbesLaunched)
	require.Equal(t, 4, report.Scan.Scanned)
	require.Zero(t, report.Pool.Failed)
	require.Equal(t, 1, report.Bus.Subscribers["scan.planetary"])
	require.Equal(t, uint64(40+4), report.Bus.Published)

	raw, err := report.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "dev", decoded["environment"])
	require.Contains(t, decoded, "heavy_job")
}

func TestRequestCloseStopsTheLoop(t *testing.T) {
	rt := newRuntime(t, testSettings(config.WithFrames(100000), config.WithProbes(0)))

	type outcome struct {
		report Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := rt.Run(context.Background())
		done <- outcome{report, err}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, rt.RequestClose(context.Background()))

	select {
	case out := <-done:
		require.NoError(t, out.err)
		report := out.report
		require.True(t, report.Closed)
		require.Less(t, report.Frames, 100000)
		require.Equal(t, int64(report.Frames), report.FrameUpdates)
	case <-time.After(5 * time.Second):
		t.Fatal("frame loop ignored WindowClose")
	}
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := testSettings(config.WithFrames(100000), config.WithHeavyJobDelay(time.Hour))
	rt, err := New(ctx, cfg, WithScanConfig(fastScan()))
	require.NoError(t, err)

	report, err := rt.Run(ctx)
	require.NoError(t, err)
	require.Less(t, report.Frames, 100000)
	require.False(t, report.Closed)

	// The heavy job observes the cancelled pool context, so shutdown drains promptly.
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, rt.Shutdown(shutdownCtx))
}

func TestShutdownRejectsFurtherWork(t *testing.T) {
	rt, err := New(context.Background(), testSettings())
	require.NoError(t, err)
	require.NoError(t, rt.Shutdown(context.Background()))

	_, err = rt.Run(context.Background())
	require.ErrorIs(t, err, async.ErrPoolClosed)
	require.ErrorIs(t, rt.RequestClose(context.Background()), async.ErrPoolClosed)
}

func TestHeavyJobPollIsNonBlocking(t *testing.T) {
	pool := async.NewPool(async.WithWorkers(1))
	defer pool.Close()

	job, err := StartHeavyJob(pool, 20*time.Millisecond, nil)
	require.NoError(t, err)

	start := time.Now()
	require.False(t, job.Poll(1))
	require.Less(t, time.Since(start), 10*time.Millisecond)
	require.True(t, job.Status().Running)

	require.Eventually(t, func() bool { return job.Poll(2) }, time.Second, time.Millisecond)
	status := job.Status()
	require.False(t, status.Running)
	require.Equal(t, HeavyJobAnswer, status.Result)
	require.Equal(t, 2, status.FinishedAtFrame)
	require.GreaterOrEqual(t, status.Elapsed, 20*time.Millisecond)
}

func TestHeavyJobSettleRespectsContext(t *testing.T) {
	pool := async.NewPool(async.WithWorkers(1))
	defer pool.Close()

	job, err := StartHeavyJob(pool, 30*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job.Settle(ctx)
	require.True(t, job.Status().Running)

	job.Settle(context.Background())
	status := job.Status()
	require.False(t, status.Running)
	require.Equal(t, HeavyJobAnswer, status.Result)
	require.Zero(t, status.FinishedAtFrame)
	require.Empty(t, status.Error)
}
