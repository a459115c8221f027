package app

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sourcegraph/conc"

	"github.com/coachpo/taskbus/internal/app/scan"
	"github.com/coachpo/taskbus/internal/bus/eventbus"
	"github.com/coachpo/taskbus/internal/events"
	"github.com/coachpo/taskbus/internal/observability"
	"github.com/coachpo/taskbus/lib/async"
)

// Report summarises one Run.
type Report struct {
	Environment    string         `json:"environment"`
	Frames         int            `json:"frames"`
	FrameUpdates   int64          `json:"frame_updates"`
	Closed         bool           `json:"closed"`
	Elapsed        time.Duration  `json:"elapsed"`
	HeavyJob       HeavyJobStatus `json:"heavy_job"`
	ProbesLaunched int            `json:"probes_launched"`
	Scan           scan.Summary   `json:"scan"`
	Pool           async.Stats    `json:"pool"`
	Bus            eventbus.Stats `json:"bus"`
}

// JSON renders the report for output.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Run drives the frame loop until the configured frame count, a WindowClose
// event, or ctx ends. Each frame publishes an AppUpdate and polls the heavy
// job without blocking while a probe swarm launches in the background.
func (r *Runtime) Run(ctx context.Context) (Report, error) {
	demo := r.cfg.Demo
	report := Report{Environment: string(r.cfg.Environment)}

	heavy, err := StartHeavyJob(r.Pool, demo.HeavyJobDelay, r.logger)
	if err != nil {
		return report, fmt.Errorf("start heavy job: %w", err)
	}

	var (
		wg       conc.WaitGroup
		probes   []*eventbus.Dispatch[*scan.PlanetaryScan]
		swarmErr error
	)
	wg.Go(func() {
		probes, swarmErr = r.launcher.Swarm(ctx, demo.Probes)
	})

	ticker := time.NewTicker(demo.FrameInterval)
	defer ticker.Stop()

	frames := make([]*eventbus.Dispatch[*events.AppUpdate], 0, demo.Frames)
	start := time.Now()
	last := start
loop:
	for report.Frames < demo.Frames {
		select {
		case <-ctx.Done():
			break loop
		case <-r.closed:
			report.Closed = true
			break loop
		case now := <-ticker.C:
			report.Frames++
			d, err := eventbus.Publish(ctx, r.Bus, events.AppUpdate{
				Frame: uint64(report.Frames),
				Delta: now.Sub(last),
			})
			if err != nil {
				wg.Wait()
				return report, fmt.Errorf("publish frame %d: %w", report.Frames, err)
			}
			frames = append(frames, d)
			last = now
			heavy.Poll(report.Frames)
		}
	}
	report.Elapsed = time.Since(start)

	wg.Wait()
	if swarmErr != nil && ctx.Err() == nil {
		r.logger.Error("probe swarm interrupted", observability.F("error", swarmErr))
	}
	for _, d := range frames {
		_ = d.Wait()
	}
	for _, d := range probes {
		_ = d.Wait()
	}
	heavy.Settle(ctx)

	report.FrameUpdates = r.frameUpdates.Load()
	report.HeavyJob = heavy.Status()
	report.ProbesLaunched = len(probes)
	report.Scan = r.scanner.Results().Snapshot()
	report.Pool = r.Pool.Stats()
	report.Bus = r.Bus.Stats()
	r.logger.Info("frame loop finished",
		observability.F("frames", report.Frames),
		observability.F("scanned", report.Scan.Scanned),
		observability.F("heavy_result", report.HeavyJob.Result))
	return report, nil
}
