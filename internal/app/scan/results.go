package scan

import (
	"sync"
	"time"
)

// HistoryLimit bounds the latency history kept by Results.
const HistoryLimit = 100

// Summary is a copy of the collected results.
type Summary struct {
	Scanned        int             `json:"scanned"`
	Failed         int             `json:"failed"`
	MaxLatency     time.Duration   `json:"max_latency"`
	MeanLatency    time.Duration   `json:"mean_latency"`
	LatencyHistory []time.Duration `json:"latency_history"`
	Distances      []float32       `json:"distances"`
	Densities      []float32       `json:"densities"`
}

// Results collects completed scans from concurrent handlers.
type Results struct {
	mu         sync.Mutex
	distances  []float32
	densities  []float32
	latencies  []time.Duration
	maxLatency time.Duration
	total      time.Duration
	failed     int
}

// NewResults returns an empty collector.
func NewResults() *Results {
	return &Results{latencies: make([]time.Duration, 0, HistoryLimit)}
}

// Add records a finished scan.
func (r *Results) Add(evt *PlanetaryScan) {
	if evt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distances = append(r.distances, evt.Distance)
	r.densities = append(r.densities, evt.AtmosphereDensity)
	r.total += evt.CalculationTime
	if evt.CalculationTime > r.maxLatency {
		r.maxLatency = evt.CalculationTime
	}
	r.latencies = append(r.latencies, evt.CalculationTime)
	if len(r.latencies) > HistoryLimit {
		r.latencies = append(r.latencies[:0], r.latencies[len(r.latencies)-HistoryLimit:]...)
	}
}

// RecordFailure counts a scan whose sensor never answered.
func (r *Results) RecordFailure() {
	r.mu.Lock()
	r.failed++
	r.mu.Unlock()
}

// Len returns the number of successful scans.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.distances)
}

// Snapshot copies the collected data.
func (r *Results) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Summary{
		Scanned:        len(r.distances),
		Failed:         r.failed,
		MaxLatency:     r.maxLatency,
		LatencyHistory: append([]time.Duration(nil), r.latencies...),
		Distances:      append([]float32(nil), r.distances...),
		Densities:      append([]float32(nil), r.densities...),
	}
	if s.Scanned > 0 {
		s.MeanLatency = r.total / time.Duration(s.Scanned)
	}
	return s
}
