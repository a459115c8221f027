package app

import (
	"context"
	"time"

	"github.com/coachpo/taskbus/internal/observability"
	"github.com/coachpo/taskbus/lib/async"
)

// HeavyJobAnswer is what the heavy job computes.
const HeavyJobAnswer = 42

// HeavyJobStatus reports the heavy job as seen by the frame loop.
type HeavyJobStatus struct {
	Running         bool          `json:"running"`
	Result          int           `json:"result"`
	FinishedAtFrame int           `json:"finished_at_frame"`
	Elapsed         time.Duration `json:"elapsed"`
	Error           string        `json:"error,omitempty"`
}

// HeavyJob is a long task whose future the frame loop polls without blocking.
type HeavyJob struct {
	future  *async.Future[int]
	started time.Time
	logger  observability.Logger
	status  HeavyJobStatus
}

// StartHeavyJob submits a job that sleeps for delay and returns HeavyJobAnswer.
func StartHeavyJob(pool *async.Pool, delay time.Duration, logger observability.Logger) (*HeavyJob, error) {
	logger = observability.Or(logger)
	future, err := async.Submit(pool, func(ctx context.Context) (int, error) {
		logger.Info("heavy job started", observability.F("delay", delay.String()))
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
		return HeavyJobAnswer, nil
	})
	if err != nil {
		return nil, err
	}
	return &HeavyJob{
		future:  future,
		started: time.Now(),
		logger:  logger,
		status:  HeavyJobStatus{Running: true},
	}, nil
}

// Poll checks the job without blocking and reports whether it is finished.
// frame is recorded as the frame that first observed completion.
func (j *HeavyJob) Poll(frame int) bool {
	if !j.status.Running {
		return true
	}
	value, ok, err := j.future.Poll()
	if !ok {
		return false
	}
	j.finish(frame, value, err)
	return true
}

// Settle waits for the job to finish or ctx to end.
func (j *HeavyJob) Settle(ctx context.Context) {
	if !j.status.Running {
		return
	}
	value, err := j.future.AwaitContext(ctx)
	if err != nil {
		var ok bool
		if value, ok, err = j.future.Poll(); !ok {
			return
		}
	}
	j.finish(0, value, err)
}

// Status returns the last observed state.
func (j *HeavyJob) Status() HeavyJobStatus { return j.status }

func (j *HeavyJob) finish(frame, value int, err error) {
	j.status.Running = false
	j.status.Result = value
	j.status.FinishedAtFrame = frame
	j.status.Elapsed = time.Since(j.started)
	if err != nil {
		j.status.Error = err.Error()
		j.logger.Error("heavy job failed", observability.F("error", err))
		return
	}
	j.logger.Info("heavy job finished",
		observability.F("result", value),
		observability.F("frame", frame))
}
